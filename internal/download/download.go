package download

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // needed to decode gif
	_ "image/jpeg" // needed to decode jpeg
	_ "image/png"  // needed to decode png
	"io"
	"mime"
	"net/http"

	"mangapdf/internal/domain"
	"mangapdf/internal/sharedhttp"

	"github.com/avast/retry-go"
	_ "golang.org/x/image/webp" // needed to decode webp
)

// Fetcher downloads page images.
type Fetcher struct {
	client *http.Client
	retry  sharedhttp.Policy
}

func NewFetcher(client *http.Client, policy sharedhttp.Policy) *Fetcher {
	if client == nil {
		client = sharedhttp.NewClient(0)
	}

	return &Fetcher{
		client: client,
		retry:  policy,
	}
}

// Fetch downloads the image at url and makes sure it can be decoded.
// Every failure wraps domain.ErrFetch.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", domain.ErrFetch, err)
	}

	req.Header.Set("User-Agent", sharedhttp.UserAgent)

	var data []byte

	retryErr := f.retry.Do(ctx, func() error {
		resp, err := sharedhttp.ExecRequest(f.client, req)
		if err != nil {
			return fmt.Errorf("failed to get image: %w", err)
		}
		defer resp.Body.Close()

		if err := checkContentType(resp.Header.Get("Content-Type")); err != nil {
			return retry.Unrecoverable(err)
		}

		body, err := io.ReadAll(bufio.NewReader(resp.Body))
		if err != nil {
			return fmt.Errorf("failed to read image data: %w", err)
		}

		if _, _, err := image.DecodeConfig(bytes.NewReader(body)); err != nil {
			return retry.Unrecoverable(fmt.Errorf("failed to decode image: %w", err))
		}

		data = body

		return nil
	})
	if retryErr != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrFetch, url, retryErr)
	}

	return data, nil
}

// checkContentType rejects responses that announce a non image body. A missing
// or generic content type is left to the decoder.
func checkContentType(contentType string) error {
	if contentType == "" {
		return nil
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return fmt.Errorf("invalid content type %q: %w", contentType, err)
	}

	switch mediaType {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp", "application/octet-stream":
		return nil
	default:
		return fmt.Errorf("unsupported content type: %s", mediaType)
	}
}
