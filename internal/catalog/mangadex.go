package catalog

import (
	"bufio"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"mangapdf/internal/domain"
	"mangapdf/internal/sharedhttp"

	"github.com/avast/retry-go"
	"github.com/google/uuid"
)

const (
	DefaultURL      = "https://api.mangadex.org"
	DefaultLanguage = "en"
	DefaultLimit    = 500

	// the /chapter endpoint rejects a limit above 100
	chapterLimit = 100

	resultOK = "ok"
)

// ChapterEndpoint selects which listing endpoint ListChapters pages through.
type ChapterEndpoint string

const (
	EndpointFeed    ChapterEndpoint = "feed"
	EndpointChapter ChapterEndpoint = "chapter"
)

type Config struct {
	BaseURL   string
	Token     string
	Language  string
	Endpoint  ChapterEndpoint
	PageLimit int
	Client    *http.Client
	Retry     sharedhttp.Policy
}

type Mangadex struct {
	baseURL  string
	token    string
	language string
	endpoint ChapterEndpoint
	limit    int
	client   *http.Client
	retry    sharedhttp.Policy
}

type mangadexMangaData struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes struct {
		Title     map[string]string   `json:"title"`
		AltTitles []map[string]string `json:"altTitles"`
	} `json:"attributes"`
}

type mangadexSearch struct {
	Result string              `json:"result"`
	Data   []mangadexMangaData `json:"data"`
}

type mangadexManga struct {
	Result string            `json:"result"`
	Data   mangadexMangaData `json:"data"`
}

type mangadexChapters struct {
	Result string `json:"result"`
	Data   []struct {
		ID         string `json:"id"`
		Type       string `json:"type"`
		Attributes struct {
			Chapter *string `json:"chapter"`
			Title   *string `json:"title"`
		} `json:"attributes"`
	} `json:"data"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

type mangadexAtHome struct {
	Result  string `json:"result"`
	BaseURL string `json:"baseUrl"`
	Chapter struct {
		Hash string   `json:"hash"`
		Data []string `json:"data"`
	} `json:"chapter"`
}

func NewMangadex(cfg Config) *Mangadex {
	m := &Mangadex{
		baseURL:  cfg.BaseURL,
		token:    cfg.Token,
		language: cfg.Language,
		endpoint: cfg.Endpoint,
		limit:    cfg.PageLimit,
		client:   cfg.Client,
		retry:    cfg.Retry,
	}

	if m.baseURL == "" {
		m.baseURL = DefaultURL
	}
	if m.language == "" {
		m.language = DefaultLanguage
	}
	if m.endpoint == "" {
		m.endpoint = EndpointFeed
	}
	if m.limit <= 0 {
		m.limit = DefaultLimit
	}
	if m.client == nil {
		m.client = sharedhttp.NewClient(60 * time.Second)
	}
	if m.retry.Attempts == 0 {
		m.retry = sharedhttp.DefaultPolicy
	}

	return m
}

func (m *Mangadex) String() string {
	return "MangaDex"
}

// ResolveTitle returns the id of the first work with a localized title equal
// to query, ignoring case and surrounding whitespace. Alternative titles are
// only considered when no primary title matches.
func (m *Mangadex) ResolveTitle(ctx context.Context, query string) (string, error) {
	var searchResp mangadexSearch

	params := url.Values{
		"title": []string{query},
	}

	if err := m.get(ctx, []string{"manga"}, params, &searchResp); err != nil {
		return "", fmt.Errorf("%w: searching for %q: %w", domain.ErrNotFound, query, err)
	}

	if searchResp.Result != resultOK {
		return "", fmt.Errorf("%w: searching for %q: %w", domain.ErrNotFound, query, unexpectedResult(searchResp.Result))
	}

	needle := normalizeTitle(query)

	for _, data := range searchResp.Data {
		for _, title := range data.Attributes.Title {
			if normalizeTitle(title) == needle {
				return validateID(data.ID)
			}
		}
	}

	for _, data := range searchResp.Data {
		for _, alt := range data.Attributes.AltTitles {
			for _, title := range alt {
				if normalizeTitle(title) == needle {
					return validateID(data.ID)
				}
			}
		}
	}

	return "", fmt.Errorf("%w: no manga titled %q", domain.ErrNotFound, query)
}

func (m *Mangadex) GetWork(ctx context.Context, workID string) (domain.Work, error) {
	var mangaResp mangadexManga

	if err := m.get(ctx, []string{"manga", workID}, nil, &mangaResp); err != nil {
		return domain.Work{}, err
	}

	if mangaResp.Result != resultOK {
		return domain.Work{}, unexpectedResult(mangaResp.Result)
	}

	id, err := validateID(mangaResp.Data.ID)
	if err != nil {
		return domain.Work{}, err
	}

	titles := mangaResp.Data.Attributes.Title
	if len(titles) == 0 {
		return domain.Work{}, fmt.Errorf("%w: manga %s has no title", domain.ErrUpstream, workID)
	}

	return domain.Work{
		ID:     id,
		Titles: titles,
	}, nil
}

// ListChapters returns the chapters of a work in the configured language,
// one per chapter number and sorted ascending by number.
func (m *Mangadex) ListChapters(ctx context.Context, workID string) ([]domain.Chapter, error) {
	var chapters []domain.Chapter
	seen := make(map[float64]struct{})
	offset := 0

	for {
		var chapterResp mangadexChapters

		path, params := m.chapterListing(workID, offset)

		if err := m.get(ctx, path, params, &chapterResp); err != nil {
			return nil, err
		}

		if chapterResp.Result != resultOK {
			return nil, unexpectedResult(chapterResp.Result)
		}

		for _, data := range chapterResp.Data {
			// oneshots come without a chapter number
			if data.Attributes.Chapter == nil || strings.TrimSpace(*data.Attributes.Chapter) == "" {
				continue
			}

			chapterNum, err := strconv.ParseFloat(strings.TrimSpace(*data.Attributes.Chapter), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid chapter number %q: %w", domain.ErrUpstream, *data.Attributes.Chapter, err)
			}

			if _, ok := seen[chapterNum]; ok {
				continue
			}

			id, err := validateID(data.ID)
			if err != nil {
				return nil, err
			}

			var title string
			if data.Attributes.Title != nil {
				title = *data.Attributes.Title
			}

			seen[chapterNum] = struct{}{}
			chapters = append(chapters, domain.Chapter{
				ID:     id,
				Number: chapterNum,
				Title:  title,
			})
		}

		offset += len(chapterResp.Data)

		if len(chapterResp.Data) == 0 || offset >= chapterResp.Total {
			break
		}
	}

	slices.SortStableFunc(chapters, func(a, b domain.Chapter) int {
		return cmp.Compare(a.Number, b.Number)
	})

	return chapters, nil
}

// GetPageManifest returns the image urls of a chapter in reading order.
func (m *Mangadex) GetPageManifest(ctx context.Context, chapterID string) ([]string, error) {
	var atHomeResp mangadexAtHome

	if err := m.get(ctx, []string{"at-home", "server", chapterID}, nil, &atHomeResp); err != nil {
		return nil, err
	}

	if atHomeResp.Result != resultOK {
		return nil, unexpectedResult(atHomeResp.Result)
	}

	if atHomeResp.BaseURL == "" || atHomeResp.Chapter.Hash == "" {
		return nil, fmt.Errorf("%w: incomplete delivery info for chapter %s", domain.ErrUpstream, chapterID)
	}

	imageURLs := make([]string, 0, len(atHomeResp.Chapter.Data))

	for _, filename := range atHomeResp.Chapter.Data {
		imagePath, err := url.JoinPath(atHomeResp.BaseURL, "data", atHomeResp.Chapter.Hash, filename)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid image url: %w", domain.ErrUpstream, err)
		}

		imageURLs = append(imageURLs, imagePath)
	}

	if len(imageURLs) == 0 {
		return nil, fmt.Errorf("%w: no pages for chapter %s", domain.ErrUpstream, chapterID)
	}

	return imageURLs, nil
}

func (m *Mangadex) chapterListing(workID string, offset int) ([]string, url.Values) {
	params := url.Values{
		"translatedLanguage[]": []string{m.language},
		"order[chapter]":       []string{"asc"},
		"limit":                []string{strconv.Itoa(m.limit)},
		"offset":               []string{strconv.Itoa(offset)},
	}

	if m.endpoint == EndpointChapter {
		params.Set("limit", strconv.Itoa(min(m.limit, chapterLimit)))
		params.Set("manga", workID)
		return []string{"chapter"}, params
	}

	return []string{"manga", workID, "feed"}, params
}

// get decodes the JSON response of a GET request into v. Every failure is
// reported as ErrUpstream.
func (m *Mangadex) get(ctx context.Context, path []string, params url.Values, v any) error {
	endpoint, err := url.JoinPath(m.baseURL, path...)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}

	if params != nil {
		u.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", sharedhttp.UserAgent)
	req.Header.Set("Accept", "application/json")
	if m.token != "" {
		req.Header.Set("Authorization", "Bearer "+m.token)
	}

	retryErr := m.retry.Do(ctx, func() error {
		resp, err := sharedhttp.ExecRequest(m.client, req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		buf := bufio.NewReader(resp.Body)

		if err := json.NewDecoder(buf).Decode(v); err != nil {
			return retry.Unrecoverable(fmt.Errorf("malformed response: %w", err))
		}

		return nil
	})
	if retryErr != nil {
		return fmt.Errorf("%w: GET %s: %w", domain.ErrUpstream, u.Path, retryErr)
	}

	return nil
}

func normalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

func validateID(id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("%w: invalid id %q: %w", domain.ErrUpstream, id, err)
	}

	return id, nil
}

func unexpectedResult(result string) error {
	return fmt.Errorf("%w: unexpected result %q", domain.ErrUpstream, result)
}
