package domain

import "context"

// Catalog is the remote manga catalog the pipeline reads from.
type Catalog interface {
	String() string
	ResolveTitle(ctx context.Context, query string) (string, error)
	GetWork(ctx context.Context, workID string) (Work, error)
	ListChapters(ctx context.Context, workID string) ([]Chapter, error)
	GetPageManifest(ctx context.Context, chapterID string) ([]string, error)
}

// ImageFetcher downloads the raw bytes of a single page image.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type Work struct {
	ID     string
	Titles map[string]string
}

// DisplayTitle prefers the english title and falls back to any other
// localized title.
func (w Work) DisplayTitle() string {
	if t, ok := w.Titles["en"]; ok && t != "" {
		return t
	}

	for _, t := range w.Titles {
		if t != "" {
			return t
		}
	}

	return w.ID
}

type Chapter struct {
	ID     string
	Number float64
	Title  string
}
