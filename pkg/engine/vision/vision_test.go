package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"

	"github.com/gardar/ocrstitch/pkg/annotation"
	"github.com/gardar/ocrstitch/pkg/engine"
)

func box(x1, y1, x2, y2 int64) *vision.BoundingPoly {
	return &vision.BoundingPoly{Vertices: []*vision.Vertex{
		{X: x1, Y: y1}, {X: x2, Y: y1}, {X: x2, Y: y2}, {X: x1, Y: y2},
	}}
}

func sampleAnnotation() *vision.TextAnnotation {
	return &vision.TextAnnotation{
		Text: "Hi\n",
		Pages: []*vision.Page{{
			Width:  100,
			Height: 50,
			Property: &vision.TextProperty{
				DetectedLanguages: []*vision.DetectedLanguage{{LanguageCode: "en"}},
			},
			Blocks: []*vision.Block{{
				BlockType:   "TEXT",
				BoundingBox: box(10, 10, 30, 22),
				Paragraphs: []*vision.Paragraph{{
					BoundingBox: box(10, 10, 30, 22),
					Words: []*vision.Word{{
						BoundingBox: box(10, 10, 30, 22),
						Confidence:  0.9,
						Symbols: []*vision.Symbol{
							{BoundingBox: box(10, 10, 20, 22), Text: "H"},
							{
								// Only normalized vertices: scaled by the page size
								BoundingBox: &vision.BoundingPoly{NormalizedVertices: []*vision.NormalizedVertex{
									{X: 0.2, Y: 0.2}, {X: 0.3, Y: 0.2}, {X: 0.3, Y: 0.44}, {X: 0.2, Y: 0.44},
								}},
								Text:     "i",
								Property: &vision.TextProperty{DetectedBreak: &vision.DetectedBreak{Type: "LINE_BREAK"}},
							},
						},
					}},
				}},
			}},
		}},
	}
}

func TestFromTextAnnotation(t *testing.T) {
	doc := FromTextAnnotation(sampleAnnotation())

	if doc.Text != "Hi\n" || len(doc.Pages) != 1 {
		t.Fatalf("unexpected document %+v", doc)
	}
	page := doc.Pages[0]
	if page.Width != 100 || page.Height != 50 || len(page.Languages) != 1 || page.Languages[0] != "en" {
		t.Fatalf("unexpected page %+v", page)
	}
	counts := doc.Counts()
	if counts.Blocks != 1 || counts.Words != 1 || counts.Symbols != 2 {
		t.Fatalf("unexpected counts %+v", counts)
	}

	word := page.Blocks[0].Paragraphs[0].Words[0]
	if word.Text() != "Hi" || word.Confidence != 0.9 {
		t.Fatalf("unexpected word %q %v", word.Text(), word.Confidence)
	}
	x1, y1, x2, y2, ok := word.Symbols[1].BoundingBox.Rect()
	if !ok || x1 != 20 || y1 != 10 || x2 != 30 || y2 != 22 {
		t.Fatalf("normalized vertices scaled to (%d,%d)-(%d,%d)", x1, y1, x2, y2)
	}
	if word.Symbols[1].Break != annotation.BreakLine {
		t.Fatalf("unexpected break %q", word.Symbols[1].Break)
	}
	if page.Blocks[0].BlockType != "TEXT" {
		t.Fatalf("unexpected block type %q", page.Blocks[0].BlockType)
	}
}

func TestFromResponseEmpty(t *testing.T) {
	doc, err := FromResponse(&vision.AnnotateImageResponse{})
	if err != nil {
		t.Fatalf("FromResponse() error = %v", err)
	}
	if !doc.IsEmpty() {
		t.Fatalf("an image without text should give an empty document")
	}
}

func TestFromResponseStatus(t *testing.T) {
	tests := []struct {
		code      int64
		temporary bool
	}{
		{3, false}, // INVALID_ARGUMENT
		{8, true},  // RESOURCE_EXHAUSTED
		{14, true}, // UNAVAILABLE
	}
	for _, tt := range tests {
		_, err := FromResponse(&vision.AnnotateImageResponse{Error: &vision.Status{Code: tt.code, Message: "failed"}})
		if !errors.Is(err, engine.ErrExternalService) {
			t.Fatalf("code %d: expected an engine error, got %v", tt.code, err)
		}
		if engine.IsTemporary(err) != tt.temporary {
			t.Fatalf("code %d: temporary = %v, want %v", tt.code, !tt.temporary, tt.temporary)
		}
	}
}

func TestTemporaryHTTP(t *testing.T) {
	for code, want := range map[int]bool{400: false, 403: false, 429: true, 500: true, 503: true} {
		if temporaryHTTP(code) != want {
			t.Fatalf("temporaryHTTP(%d) != %v", code, want)
		}
	}
}

func newTestEngine(t *testing.T, handler http.HandlerFunc) *Engine {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := vision.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return NewWithService(svc, []string{"en"})
}

func TestRecognize(t *testing.T) {
	payload := []byte("fake image bytes")
	eng := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		var req vision.BatchAnnotateImagesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if len(req.Requests) != 1 {
			http.Error(w, "expected one request", http.StatusBadRequest)
			return
		}
		got := req.Requests[0]
		if got.Image.Content != base64.StdEncoding.EncodeToString(payload) ||
			got.Features[0].Type != FeatureDocumentText ||
			got.ImageContext.LanguageHints[0] != "en" {
			http.Error(w, "unexpected request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(&vision.BatchAnnotateImagesResponse{
			Responses: []*vision.AnnotateImageResponse{{FullTextAnnotation: sampleAnnotation()}},
		})
	})

	doc, err := eng.Recognize(context.Background(), engine.Input{Image: payload, MIMEType: "image/png", ID: "root"})
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if doc.PlainText() != "Hi" {
		t.Fatalf("unexpected text %q", doc.PlainText())
	}
	if eng.Name() != Name {
		t.Fatalf("unexpected name %s", eng.Name())
	}
}

func TestRecognizeRejected(t *testing.T) {
	eng := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"Request payload size exceeds the limit"}}`))
	})

	_, err := eng.Recognize(context.Background(), engine.Input{Image: []byte("x")})
	if !errors.Is(err, engine.ErrExternalService) {
		t.Fatalf("expected an engine error, got %v", err)
	}
	if engine.IsTemporary(err) {
		t.Fatalf("a rejected payload is not temporary")
	}
}

func TestMaxImageBytes(t *testing.T) {
	eng := NewWithService(nil, nil)
	for _, budget := range []int64{4, 1000, 20 << 20} {
		n := eng.MaxImageBytes(budget)
		if int64(base64.StdEncoding.EncodedLen(int(n))) > budget {
			t.Fatalf("%d image bytes do not fit a %d byte request", n, budget)
		}
		if int64(base64.StdEncoding.EncodedLen(int(n+3))) <= budget {
			t.Fatalf("MaxImageBytes(%d) = %d leaves room for more", budget, n)
		}
	}
}
