package app

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/luinbytes/car-images/config"
	"github.com/luinbytes/car-images/report"
	"github.com/luinbytes/car-images/storage"
)

type harness struct {
	dir string
	cfg *config.Config
	log bytes.Buffer
	out bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := config.Default()
	h := &harness{dir: t.TempDir(), cfg: &cfg}
	cfg.Dir = h.dir
	cfg.Delay = 0
	return h
}

func (h *harness) app(mode report.Mode) *App {
	return New(h.cfg, mode, zerolog.New(&h.log), &h.out)
}

func (h *harness) writeCatalog(t *testing.T, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(h.dir, "stats.json"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func (h *harness) images(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(h.dir, "img"))
	if err != nil {
		t.Fatalf("ReadDir(img) error = %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/x.png", "/y":
			w.Write([]byte("image"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunOnceDownload(t *testing.T) {
	srv := imageServer(t)
	h := newHarness(t)
	h.writeCatalog(t, `[
		{"make":"Acme","model":"Volt X","image_url":"`+srv.URL+`/x.png"},
		{"make":"Zeta","model":"Bolt","image_url":"`+srv.URL+`/y"},
		{"make":"NoPic","model":"Car"}
	]`)

	a := h.app(report.Download)
	defer a.Close()

	summary, err := a.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if summary.Tally.Created != 2 || summary.Tally.Skipped != 1 || summary.InFolder != 2 {
		t.Errorf("RunOnce() summary = %+v", summary)
	}

	names := h.images(t)
	if want := []string{"acme-volt-x.png", "zeta-bolt.jpg"}; strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("images = %v, want %v", names, want)
	}

	out := h.out.String()
	for _, want := range []string{"Download complete!", "Downloaded: 2 images", "Skipped: 1 images", "Total images in img folder: 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}

	logs := h.log.String()
	for _, want := range []string{"Created/verified img folder", "Found 3 cars in stats.json", "Skipping NoPic Car: No image_url", "Downloaded: "} {
		if !strings.Contains(logs, want) {
			t.Errorf("log missing %q:\n%s", want, logs)
		}
	}

	// Re-running writes nothing new.
	h.out.Reset()
	summary, err = a.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("second RunOnce() error = %v", err)
	}
	if summary.Tally.Created != 0 || summary.Tally.SkippedExists != 2 {
		t.Errorf("second RunOnce() summary = %+v", summary)
	}
	if !strings.Contains(h.out.String(), "Skipped: 3 images") {
		t.Errorf("second summary = %s", h.out.String())
	}
}

func TestRunOnceMissingCatalog(t *testing.T) {
	h := newHarness(t)
	a := h.app(report.Download)

	if _, err := a.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if !strings.Contains(h.log.String(), "Error: stats.json not found") {
		t.Errorf("log = %s", h.log.String())
	}
	// The output folder is only created once the catalog is found.
	if _, err := os.Stat(filepath.Join(h.dir, "img")); !os.IsNotExist(err) {
		t.Errorf("img folder exists after missing catalog (err = %v)", err)
	}
	if h.out.Len() != 0 {
		t.Errorf("summary printed for missing catalog: %s", h.out.String())
	}
}

func TestRunOnceMalformedCatalog(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"Truncated", `[{"make":"Acme"`},
		{"Not an array", `{"make":"Acme","model":"One","image_url":"http://x/a.jpg"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.writeCatalog(t, tt.content)
			a := h.app(report.Placeholder)
			defer a.Close()

			if _, err := a.RunOnce(context.Background()); err != nil {
				t.Fatalf("RunOnce() error = %v", err)
			}
			if names := h.images(t); len(names) != 0 {
				t.Errorf("images = %v, want none", names)
			}
			if !strings.Contains(h.log.String(), "Error parsing stats.json") {
				t.Errorf("log = %s", h.log.String())
			}
		})
	}
}

func TestRunOncePlaceholders(t *testing.T) {
	h := newHarness(t)
	h.cfg.Font = filepath.Join(h.dir, "no-such-font.ttf")
	h.cfg.NoEmoji = true
	h.writeCatalog(t, `[
		{"make":"Acme","model":"Volt X","image_url":"https://cdn.example/x.png"},
		{"model":"Mystery","image_url":"https://cdn.example/m"},
		{"make":"NoPic","model":"Car"}
	]`)

	a := h.app(report.Placeholder)
	defer a.Close()

	summary, err := a.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}

	names := h.images(t)
	if want := []string{"acme-volt-x.jpg", "unknown-mystery.jpg"}; strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("images = %v, want %v", names, want)
	}
	if summary.Tally.SkippedNoURL != 1 {
		t.Errorf("SkippedNoURL = %d, want 1", summary.Tally.SkippedNoURL)
	}
	out := h.out.String()
	if !strings.Contains(out, "Placeholder creation complete!") || !strings.Contains(out, "Created: 2 placeholder images") {
		t.Errorf("summary = %s", out)
	}
	if strings.Contains(out, "✅") {
		t.Errorf("summary has emoji with NoEmoji set: %s", out)
	}
}

func TestRunOnceStoreError(t *testing.T) {
	h := newHarness(t)
	h.writeCatalog(t, `[]`)
	a := h.app(report.Download)

	boom := errors.New("no credentials")
	a.OpenStore = func(context.Context) (storage.Provider, error) { return nil, boom }

	if _, err := a.RunOnce(context.Background()); !errors.Is(err, boom) {
		t.Errorf("RunOnce() error = %v, want %v", err, boom)
	}
}

func TestRunOnceCanceled(t *testing.T) {
	srv := imageServer(t)
	h := newHarness(t)
	h.writeCatalog(t, `[{"make":"Acme","model":"One","image_url":"`+srv.URL+`/y"}]`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := h.app(report.Download)
	defer a.Close()
	summary, err := a.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if summary.Tally.Created != 0 {
		t.Errorf("Created = %d, want 0 after cancel", summary.Tally.Created)
	}
	if !strings.Contains(h.log.String(), "Stopped before the end of the catalog") {
		t.Errorf("log = %s", h.log.String())
	}
}

func TestWatchRerunsOnChange(t *testing.T) {
	h := newHarness(t)
	h.cfg.WatchDebounce = config.Duration(50 * time.Millisecond)
	h.writeCatalog(t, `[]`)

	a := h.app(report.Placeholder)
	defer a.Close()
	if _, err := a.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Watch(ctx) }()

	// Let the watcher register before changing the catalog.
	time.Sleep(100 * time.Millisecond)
	h.writeCatalog(t, `[{"make":"Acme","model":"One","image_url":"https://cdn.example/a.png"}]`)

	target := filepath.Join(h.dir, "img", "acme-one.jpg")
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(target); err == nil {
			break
		}
		if time.Now().After(deadline) {
			cancel()
			<-done
			t.Fatal("placeholder not created after catalog change")
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch() error = %v", err)
	}
}
