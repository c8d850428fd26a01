package generate

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/openclaw/qrconsent/config"
	"github.com/openclaw/qrconsent/datauri"
	"github.com/openclaw/qrconsent/page"
	"github.com/openclaw/qrconsent/qr"
	"github.com/openclaw/qrconsent/store"
)

type memRecorder struct {
	mu   sync.Mutex
	recs []store.Record
}

func (m *memRecorder) Save(rec *store.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, *rec)
	return nil
}

func newTestGenerator(t *testing.T) (*Generator, *config.Config, *memRecorder) {
	t.Helper()
	cfg := config.Defaults()
	cfg.OutputDir = t.TempDir()
	rec := &memRecorder{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(cfg, rec, nil, log), cfg, rec
}

func TestPlain(t *testing.T) {
	t.Parallel()

	g, cfg, rec := newTestGenerator(t)

	res, err := g.Plain(context.Background(), "https://example.com/path?x=1")
	if err != nil {
		t.Fatalf("Plain: %v", err)
	}
	if res.Path != cfg.PlainPath() || res.Level != qr.LevelM || res.Kind != KindPlain {
		t.Errorf("unexpected result %+v", res)
	}

	got, err := qr.ScanFile(res.Path)
	if err != nil {
		t.Fatalf("ScanFile: %v", err)
	}
	if got != "https://example.com/path?x=1" {
		t.Errorf("decoded %q", got)
	}

	if len(rec.recs) != 1 || rec.recs[0].Kind != "plain" || rec.recs[0].Level != "M" {
		t.Errorf("unexpected history %+v", rec.recs)
	}
}

func TestPlainEmpty(t *testing.T) {
	t.Parallel()

	g, cfg, rec := newTestGenerator(t)

	if _, err := g.Plain(context.Background(), ""); !errors.Is(err, ErrEmptyPayload) {
		t.Errorf("expected ErrEmptyPayload, got %v", err)
	}
	if _, err := os.Stat(cfg.PlainPath()); !os.IsNotExist(err) {
		t.Errorf("expected no file at %s", cfg.PlainPath())
	}
	if len(rec.recs) != 0 {
		t.Errorf("expected no history, got %d", len(rec.recs))
	}
}

func TestConsent(t *testing.T) {
	t.Parallel()

	targets := []string{
		"https://example.com/a?b=1&c=2",
		`https://x.com/"><script>`,
	}
	for _, target := range targets {
		target := target
		t.Run(target, func(t *testing.T) {
			t.Parallel()
			g, cfg, _ := newTestGenerator(t)

			res, err := g.Consent(context.Background(), target, "")
			if err != nil {
				t.Fatalf("Consent: %v", err)
			}
			if res.Level != qr.LevelH || res.Path != cfg.ConsentPath() {
				t.Errorf("unexpected result %+v", res)
			}

			text, err := qr.ScanFile(res.Path)
			if err != nil {
				t.Fatalf("ScanFile: %v", err)
			}
			if !strings.HasPrefix(text, "data:text/html;charset=utf-8,") {
				t.Fatalf("unexpected payload prefix: %q", text)
			}
			if text != res.Payload {
				t.Error("decoded payload differs from generated payload")
			}

			u, err := datauri.Parse(text)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			links, err := page.Links(u.Data)
			if err != nil {
				t.Fatalf("Links: %v", err)
			}
			if len(links) != 1 || links[0] != target {
				t.Errorf("links = %v, want [%s]", links, target)
			}
			if !strings.Contains(u.Data, "Demo Site") {
				t.Error("expected configured site name in page")
			}
		})
	}
}

func TestConsentSiteName(t *testing.T) {
	t.Parallel()

	payload, err := ConsentPayload("https://example.com", "Other <Site>")
	if err != nil {
		t.Fatalf("ConsentPayload: %v", err)
	}
	u, err := datauri.Parse(payload)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s, err := page.Inspect(u.Data)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if s.Title != "Warning — Other <Site>" {
		t.Errorf("title = %q", s.Title)
	}
}

func TestConsentEmpty(t *testing.T) {
	t.Parallel()

	g, _, _ := newTestGenerator(t)
	if _, err := g.Consent(context.Background(), "", "Demo Site"); !errors.Is(err, ErrEmptyPayload) {
		t.Errorf("expected ErrEmptyPayload, got %v", err)
	}
}

func TestConsentTooLarge(t *testing.T) {
	t.Parallel()

	g, cfg, rec := newTestGenerator(t)
	target := "https://example.com/" + strings.Repeat("segment/", 60)

	_, err := g.Consent(context.Background(), target, "")
	if !errors.Is(err, qr.ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
	if _, err := os.Stat(cfg.ConsentPath()); !os.IsNotExist(err) {
		t.Error("expected no consent file after overflow")
	}
	if len(rec.recs) != 0 {
		t.Error("expected no history after overflow")
	}
}

func TestGoodboy(t *testing.T) {
	t.Parallel()

	g, cfg, _ := newTestGenerator(t)

	res, err := g.Goodboy(context.Background())
	if err != nil {
		t.Fatalf("Goodboy: %v", err)
	}
	if res.Path != cfg.GoodboyPath() || res.Level != qr.LevelM {
		t.Errorf("unexpected result %+v", res)
	}

	text, err := qr.ScanFile(res.Path)
	if err != nil {
		t.Fatalf("ScanFile: %v", err)
	}
	u, err := datauri.Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if u.Data != page.Goodboy {
		t.Error("decoded goodboy page differs from embedded page")
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	g, cfg, rec := newTestGenerator(t)

	data, err := g.Render(context.Background(), KindPlain, "in memory", PlainLevel)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	got, err := qr.Decode(img)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != "in memory" {
		t.Errorf("decoded %q", got)
	}

	entries, err := os.ReadDir(cfg.OutputDir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty output dir, got %d entries", len(entries))
	}
	if len(rec.recs) != 1 || rec.recs[0].Path != "" || rec.recs[0].Width != img.Bounds().Dx() {
		t.Errorf("unexpected history %+v", rec.recs)
	}

	if _, err := g.Render(context.Background(), KindPlain, "", PlainLevel); !errors.Is(err, ErrEmptyPayload) {
		t.Errorf("expected ErrEmptyPayload, got %v", err)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	t.Parallel()

	g, cfg, _ := newTestGenerator(t)
	cfg.BoxSize = 3
	cfg.Border = 1

	opts := g.Options(qr.LevelQ)
	if opts.BoxSize != 3 || opts.Border != 1 || opts.Level != qr.LevelQ {
		t.Errorf("unexpected options %+v", opts)
	}
}
