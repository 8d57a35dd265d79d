package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"NewsFetcher/internal/domain"
	"NewsFetcher/internal/usecase"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand("v0.3.0")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func feedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		base := "http://" + r.Host
		switch r.URL.Path {
		case "/robots.txt":
			http.NotFound(w, r)
		case "/a":
			_, _ = fmt.Fprint(w, `<html><head><title>Trucking capacity tightens</title></head><body><article><p>Carriers are parking trucks as spot rates slide across the Midwest.</p></article></body></html>`)
		default:
			w.Header().Set("Content-Type", "application/rss+xml")
			_, _ = fmt.Fprintf(w, `<?xml version="1.0"?><rss version="2.0"><channel><title>Wire</title>
<item><title>Trucking capacity tightens</title><link>%[1]s/a</link><pubDate>Tue, 10 Mar 2026 08:00:00 GMT</pubDate><description>Carriers</description></item>
<item><title>Garden show returns</title><link>%[1]s/b</link><pubDate>Tue, 10 Mar 2026 09:00:00 GMT</pubDate><description>Flowers</description></item>
</channel></rss>`, base)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, feedURL string) string {
	t.Helper()
	body := fmt.Sprintf(`database:
  driver: memory
fetch:
  minRequestDelay: 0s
  retryDelay: 1ms
enrichment:
  cacheTTL: -1ns
logging:
  level: error
sources:
  - name: Local Wire
    url: %s
    kind: feed
`, feedURL)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if strings.TrimSpace(out) != "newsfetcher v0.3.0" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRunCommandPrintsReport(t *testing.T) {
	srv := feedServer(t)
	out, err := execute(t, "--config", writeConfig(t, srv.URL), "run")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var report usecase.RunReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(report.Sources) != 1 || report.Sources[0].Entries != 2 || report.Sources[0].Candidates != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestTestSourceCommand(t *testing.T) {
	srv := feedServer(t)
	path := writeConfig(t, srv.URL)

	out, err := execute(t, "--config", path, "test-source", "1")
	if err != nil {
		t.Fatalf("test-source: %v", err)
	}
	var result domain.SourceTest
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if result.EntryCount != 2 || result.RelevantCount != 1 {
		t.Fatalf("unexpected result %+v", result)
	}

	if _, err := execute(t, "--config", path, "test-source"); err == nil {
		t.Fatal("expected error without id or --all")
	}
	if _, err := execute(t, "--config", path, "test-source", "1", "--all"); err == nil {
		t.Fatal("expected error with both id and --all")
	}
	if _, err := execute(t, "--config", path, "test-source", "zero"); err == nil {
		t.Fatal("expected error for a non-numeric id")
	}
}

func TestValidateCommand(t *testing.T) {
	srv := feedServer(t)
	path := writeConfig(t, srv.URL)

	out, err := execute(t, "--config", path, "validate", srv.URL)
	if err != nil {
		t.Fatalf("validate: %v (%s)", err, out)
	}
	var result domain.FeedValidation
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if !result.IsValid || result.EntryCount != 2 {
		t.Fatalf("unexpected validation %+v", result)
	}

	if _, err := execute(t, "--config", path, "validate", "not a url"); err == nil {
		t.Fatal("invalid feed URL should exit with an error")
	}
}

func TestBadConfigFails(t *testing.T) {
	if _, err := execute(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "health"); err == nil {
		t.Fatal("expected error for a missing config file")
	}
}
