package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mangapdf/internal/catalog"
)

func TestNewWritesTemplate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := filepath.Join(t.TempDir(), "mangapdf")

	cfg, err := New(dir, "dev")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Fatalf("Expected config template to be written, got %v", err)
	}

	c := cfg.Config
	if c.APIURL != catalog.DefaultURL {
		t.Errorf("Expected api url %s, got %s", catalog.DefaultURL, c.APIURL)
	}
	if c.Language != "en" || c.ChapterEndpoint != "feed" || c.NamingTemplate != "Chapter_{num}" {
		t.Errorf("Unexpected defaults: %+v", c)
	}
	if c.DownloadLocation != "." || c.RetryAttempts != 3 || c.RequestTimeout != 60 || c.PageLimit != catalog.DefaultLimit {
		t.Errorf("Unexpected defaults: %+v", c)
	}
	if c.Version != "dev" || c.ConfigPath != dir {
		t.Errorf("Expected version and config path to be kept, got %+v", c)
	}
}

func TestNewReadsFileAndEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()

	content := `apiURL: "http://localhost:8080"
apiToken: "from-file"
language: "fr"
chapterEndpoint: "chapter"
downloadLocation: "/data/manga"
lowResolution: true
retryAttempts: 5
requestTimeout: 10
logLevel: "DEBUG"
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	t.Setenv("MANGAPDF__API_TOKEN", "from-env")
	t.Setenv("MANGAPDF__OVERWRITE", "true")

	cfg, err := New(dir, "dev")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	c := cfg.Config
	if c.APIURL != "http://localhost:8080" || c.Language != "fr" || c.DownloadLocation != "/data/manga" {
		t.Errorf("Expected file values, got %+v", c)
	}
	if c.APIToken != "from-env" {
		t.Errorf("Expected env token to win, got %q", c.APIToken)
	}
	if !c.LowResolution || !c.Overwrite {
		t.Errorf("Expected lowResolution and overwrite, got %+v", c)
	}

	cc := cfg.CatalogConfig()
	if cc.Endpoint != catalog.EndpointChapter || cc.Token != "from-env" || cc.Retry.Attempts != 5 {
		t.Errorf("Unexpected catalog config: %+v", cc)
	}
	if cc.Client.Timeout != 10*time.Second {
		t.Errorf("Expected 10s timeout, got %s", cc.Client.Timeout)
	}
}

func TestNewRejectsUnknownEndpoint(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MANGAPDF__CHAPTER_ENDPOINT", "rss")

	if _, err := New(t.TempDir(), "dev"); err == nil {
		t.Error("Expected error for unknown chapter endpoint, got nil")
	}
}

func TestNewConfigDirNotCreatable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	file := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(file, []byte("not a directory"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := New(filepath.Join(file, "mangapdf"), "dev")
	if err == nil {
		t.Fatal("Expected error when the config directory can't be created, got nil")
	}

	if !strings.Contains(err.Error(), "could not create config directory") {
		t.Errorf("Expected config directory error, got %v", err)
	}
}
