package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"mangapdf/internal/domain"
	"mangapdf/internal/sharedhttp"
)

const (
	workA = "8a0c6e38-0d1c-4b2e-9a42-0c4f1d7f2b11"
	workB = "1f2e3d4c-5b6a-4798-8a9b-0c1d2e3f4a5b"
	chap1 = "11111111-1111-4111-8111-111111111111"
	chap2 = "22222222-2222-4222-8222-222222222222"
	chap3 = "33333333-3333-4333-8333-333333333333"
	chap4 = "44444444-4444-4444-8444-444444444444"
	chap5 = "55555555-5555-4555-8555-555555555555"
)

type fakeChapter struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Attrs attrs  `json:"attributes"`
}

type attrs struct {
	Chapter *string `json:"chapter"`
	Title   *string `json:"title"`
}

func str(s string) *string {
	return &s
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("Failed to encode response: %v", err)
	}
}

func newTestClient(srv *httptest.Server, cfg Config) *Mangadex {
	cfg.BaseURL = srv.URL
	cfg.Client = srv.Client()
	cfg.Retry = sharedhttp.Policy{Attempts: 1}
	return NewMangadex(cfg)
}

func TestResolveTitle(t *testing.T) {
	var gotAuth, gotTitle string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotTitle = r.URL.Query().Get("title")

		writeJSON(t, w, map[string]any{
			"result": "ok",
			"data": []map[string]any{
				{
					"id":   workB,
					"type": "manga",
					"attributes": map[string]any{
						"title":     map[string]string{"en": "Example Sequel"},
						"altTitles": []map[string]string{{"en": "Example"}},
					},
				},
				{
					"id":   workA,
					"type": "manga",
					"attributes": map[string]any{
						"title": map[string]string{"ja-ro": " Example "},
					},
				},
			},
		})
	}))
	defer srv.Close()

	m := newTestClient(srv, Config{Token: "secret"})

	tests := []struct {
		name    string
		query   string
		want    string
		wantErr error
	}{
		{name: "case and whitespace insensitive", query: "example", want: workA},
		{name: "upper case query", query: "  EXAMPLE  ", want: workA},
		{name: "exact other candidate", query: "example sequel", want: workB},
		{name: "no match", query: "exam", wantErr: domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.ResolveTitle(context.Background(), tt.query)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected id %s, got %s", tt.want, got)
			}
		})
	}

	if gotAuth != "Bearer secret" {
		t.Errorf("Expected bearer token header, got %q", gotAuth)
	}

	if gotTitle != "exam" {
		t.Errorf("Expected title query param 'exam', got %q", gotTitle)
	}
}

func TestResolveTitleAltTitleFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"result": "ok",
			"data": []map[string]any{
				{
					"id": workB,
					"attributes": map[string]any{
						"title":     map[string]string{"en": "Something Else"},
						"altTitles": []map[string]string{{"ja": "Example"}},
					},
				},
			},
		})
	}))
	defer srv.Close()

	got, err := newTestClient(srv, Config{}).ResolveTitle(context.Background(), "example")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got != workB {
		t.Errorf("Expected id %s, got %s", workB, got)
	}
}

func TestResolveTitleUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv, Config{}).ResolveTitle(context.Background(), "example")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if !errors.Is(err, domain.ErrUpstream) {
		t.Errorf("Expected upstream cause in chain, got %v", err)
	}
}

func TestGetWork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/manga/"+workA {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(t, w, map[string]any{
			"result": "ok",
			"data": map[string]any{
				"id":         workA,
				"attributes": map[string]any{"title": map[string]string{"en": "Example"}},
			},
		})
	}))
	defer srv.Close()

	work, err := newTestClient(srv, Config{}).GetWork(context.Background(), workA)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if work.DisplayTitle() != "Example" {
		t.Errorf("Expected title 'Example', got %q", work.DisplayTitle())
	}
}

func chapterPayload(total int, chapters []fakeChapter) map[string]any {
	return map[string]any{
		"result": "ok",
		"data":   chapters,
		"total":  total,
	}
}

func TestListChaptersDedupAndOrder(t *testing.T) {
	var gotLang string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/manga/"+workA+"/feed" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		gotLang = r.URL.Query().Get("translatedLanguage[]")

		writeJSON(t, w, chapterPayload(6, []fakeChapter{
			{ID: chap3, Attrs: attrs{Chapter: str("2")}},
			{ID: chap1, Attrs: attrs{Chapter: str("1"), Title: str("First")}},
			{ID: chap2, Attrs: attrs{Chapter: str("1")}},
			{ID: chap4, Attrs: attrs{Chapter: str("1.5")}},
			{ID: chap5, Attrs: attrs{Chapter: str("10")}},
			{ID: workB, Attrs: attrs{Chapter: nil}},
		}))
	}))
	defer srv.Close()

	chapters, err := newTestClient(srv, Config{Language: "de"}).ListChapters(context.Background(), workA)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if gotLang != "de" {
		t.Errorf("Expected language 'de', got %q", gotLang)
	}

	want := []struct {
		id  string
		num float64
	}{
		{chap1, 1},
		{chap4, 1.5},
		{chap3, 2},
		{chap5, 10},
	}

	if len(chapters) != len(want) {
		t.Fatalf("Expected %d chapters, got %d: %+v", len(want), len(chapters), chapters)
	}

	for i, w := range want {
		if chapters[i].ID != w.id || chapters[i].Number != w.num {
			t.Errorf("chapter %d: expected %s/%g, got %s/%g", i, w.id, w.num, chapters[i].ID, chapters[i].Number)
		}
	}

	if chapters[0].Title != "First" {
		t.Errorf("Expected title of first occurrence, got %q", chapters[0].Title)
	}
}

func TestListChaptersPaging(t *testing.T) {
	pages := [][]fakeChapter{
		{{ID: chap1, Attrs: attrs{Chapter: str("1")}}, {ID: chap2, Attrs: attrs{Chapter: str("2")}}},
		{{ID: chap3, Attrs: attrs{Chapter: str("3")}}},
	}
	var offsets []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chapter" || r.URL.Query().Get("manga") != workA {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		offset := r.URL.Query().Get("offset")
		offsets = append(offsets, offset)

		n, _ := strconv.Atoi(offset)
		writeJSON(t, w, chapterPayload(3, pages[n/2]))
	}))
	defer srv.Close()

	m := newTestClient(srv, Config{Endpoint: EndpointChapter, PageLimit: 2})

	chapters, err := m.ListChapters(context.Background(), workA)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(chapters) != 3 {
		t.Fatalf("Expected 3 chapters, got %d", len(chapters))
	}

	if len(offsets) != 2 || offsets[0] != "0" || offsets[1] != "2" {
		t.Errorf("Expected offsets [0 2], got %v", offsets)
	}
}

func TestListChaptersLimit(t *testing.T) {
	tests := []struct {
		name     string
		endpoint ChapterEndpoint
		path     string
		expected string
	}{
		{name: "feed keeps default", endpoint: EndpointFeed, path: "/manga/" + workA + "/feed", expected: "500"},
		{name: "chapter endpoint is capped", endpoint: EndpointChapter, path: "/chapter", expected: "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotLimit string

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != tt.path {
					w.WriteHeader(http.StatusNotFound)
					return
				}

				gotLimit = r.URL.Query().Get("limit")
				// MangaDex answers 400 when the limit is out of range
				if n, _ := strconv.Atoi(gotLimit); tt.endpoint == EndpointChapter && n > 100 {
					w.WriteHeader(http.StatusBadRequest)
					return
				}

				writeJSON(t, w, chapterPayload(1, []fakeChapter{{ID: chap1, Attrs: attrs{Chapter: str("1")}}}))
			}))
			defer srv.Close()

			m := newTestClient(srv, Config{Endpoint: tt.endpoint})

			chapters, err := m.ListChapters(context.Background(), workA)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}

			if len(chapters) != 1 {
				t.Errorf("Expected 1 chapter, got %d", len(chapters))
			}

			if gotLimit != tt.expected {
				t.Errorf("Expected limit %s, got %s", tt.expected, gotLimit)
			}
		})
	}
}

func TestListChaptersUpstreamErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"result": "ok", "data": [`))
			},
		},
		{
			name: "error result",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"result": "error", "errors": []}`))
			},
		},
		{
			name: "invalid chapter number",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"result": "ok", "total": 1, "data": [{"id": "` + chap1 + `", "attributes": {"chapter": "one"}}]}`))
			},
		},
		{
			name: "invalid chapter id",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"result": "ok", "total": 1, "data": [{"id": "nope", "attributes": {"chapter": "1"}}]}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := newTestClient(srv, Config{}).ListChapters(context.Background(), workA)
			if !errors.Is(err, domain.ErrUpstream) {
				t.Errorf("Expected ErrUpstream, got %v", err)
			}
		})
	}
}

func TestGetPageManifest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/at-home/server/" + chap1:
			writeJSON(t, w, map[string]any{
				"result":  "ok",
				"baseUrl": "https://cdn.example.org",
				"chapter": map[string]any{
					"hash": "abc123",
					"data": []string{"1-a.png", "2-b.jpg"},
				},
			})
		case "/at-home/server/" + chap2:
			writeJSON(t, w, map[string]any{
				"result":  "ok",
				"baseUrl": "",
				"chapter": map[string]any{"hash": "abc123", "data": []string{"1.png"}},
			})
		default:
			w.WriteHeader(http.StatusForbidden)
		}
	}))
	defer srv.Close()

	m := newTestClient(srv, Config{})

	urls, err := m.GetPageManifest(context.Background(), chap1)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	want := []string{
		"https://cdn.example.org/data/abc123/1-a.png",
		"https://cdn.example.org/data/abc123/2-b.jpg",
	}
	if len(urls) != len(want) {
		t.Fatalf("Expected %d urls, got %d", len(want), len(urls))
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("url %d: expected %s, got %s", i, want[i], urls[i])
		}
	}

	if _, err := m.GetPageManifest(context.Background(), chap2); !errors.Is(err, domain.ErrUpstream) {
		t.Errorf("Expected ErrUpstream for missing base url, got %v", err)
	}

	if _, err := m.GetPageManifest(context.Background(), chap3); !errors.Is(err, domain.ErrUpstream) {
		t.Errorf("Expected ErrUpstream for forbidden, got %v", err)
	}
}
