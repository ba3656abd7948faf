package imageio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"google.golang.org/api/option"
	storage "google.golang.org/api/storage/v1"
)

// Loader resolves an image reference into an Image
type Loader interface {
	Load(ctx context.Context, ref string) (*Image, error)
}

// LoaderFunc adapts a function to the Loader interface
type LoaderFunc func(ctx context.Context, ref string) (*Image, error)

// Load calls f(ctx, ref)
func (f LoaderFunc) Load(ctx context.Context, ref string) (*Image, error) { return f(ctx, ref) }

// DefaultLoader reads local paths, file://, http(s):// and gs:// references
type DefaultLoader struct {
	Options Options
	Client  *http.Client          // nil uses http.DefaultClient
	Storage []option.ClientOption // Cloud Storage client options for gs:// references
}

// Load implements Loader
func (l DefaultLoader) Load(ctx context.Context, ref string) (*Image, error) {
	var (
		data []byte
		err  error
	)
	switch {
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		data, err = l.fetch(ctx, ref)
	case strings.HasPrefix(ref, "gs://"):
		data, err = l.download(ctx, ref)
	default:
		data, err = os.ReadFile(strings.TrimPrefix(ref, "file://"))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", ref, err)
	}
	img, err := Decode(data, l.Options)
	if err != nil {
		return nil, fmt.Errorf("image %s: %w", ref, err)
	}
	return img, nil
}

func (l DefaultLoader) fetch(ctx context.Context, url string) ([]byte, error) {
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// download reads a gs://bucket/object reference through the Cloud Storage
// JSON API
func (l DefaultLoader) download(ctx context.Context, ref string) ([]byte, error) {
	bucket, object, ok := strings.Cut(strings.TrimPrefix(ref, "gs://"), "/")
	if !ok || bucket == "" || object == "" {
		return nil, fmt.Errorf("malformed Cloud Storage reference, want gs://bucket/object")
	}
	svc, err := storage.NewService(ctx, l.Storage...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Cloud Storage client: %w", err)
	}
	resp, err := svc.Objects.Get(bucket, object).Context(ctx).Download()
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}
