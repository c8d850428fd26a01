// Package generate implements the QR flows: plain text, the consent warning
// page and the goodboy page. Each flow builds its payload, encodes it with
// its fixed error-correction level and records the result.
package generate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"time"

	"github.com/openclaw/qrconsent/config"
	"github.com/openclaw/qrconsent/datauri"
	"github.com/openclaw/qrconsent/notify"
	"github.com/openclaw/qrconsent/page"
	"github.com/openclaw/qrconsent/qr"
	"github.com/openclaw/qrconsent/store"
)

// ErrEmptyPayload is returned when a flow is given no text or target.
var ErrEmptyPayload = errors.New("empty payload")

// Kind names a QR flow.
type Kind string

const (
	KindPlain   Kind = "plain"
	KindConsent Kind = "consent"
	KindGoodboy Kind = "goodboy"
)

// Error-correction level of each flow. The consent page is a large payload
// and gets the highest redundancy; the goodboy page only fits at M.
const (
	PlainLevel   = qr.LevelM
	ConsentLevel = qr.LevelH
	GoodboyLevel = qr.LevelM
)

// Result describes one generated image.
type Result struct {
	Kind      Kind
	Path      string // empty for in-memory renders
	Payload   string
	Level     qr.Level
	Width     int
	CreatedAt time.Time
}

// Recorder persists results. *store.HistoryStore satisfies it.
type Recorder interface {
	Save(rec *store.Record) error
}

// Generator runs the QR flows against one configuration.
type Generator struct {
	cfg     *config.Config
	history Recorder
	webhook *notify.WebhookSender
	log     *slog.Logger
	now     func() time.Time
}

// New returns a Generator. history and webhook may be nil.
func New(cfg *config.Config, history Recorder, webhook *notify.WebhookSender, log *slog.Logger) *Generator {
	return &Generator{
		cfg:     cfg,
		history: history,
		webhook: webhook,
		log:     log,
		now:     time.Now,
	}
}

// Options returns the raster options for level from the configuration.
func (g *Generator) Options(level qr.Level) qr.Options {
	fill, back := g.cfg.Colors()
	return qr.Options{
		Level:   level,
		BoxSize: g.cfg.BoxSize,
		Border:  g.cfg.Border,
		Fill:    fill,
		Back:    back,
	}
}

// Plain encodes text verbatim into the plain QR image.
func (g *Generator) Plain(ctx context.Context, text string) (*Result, error) {
	if text == "" {
		return nil, ErrEmptyPayload
	}
	return g.write(ctx, KindPlain, g.cfg.PlainPath(), text, PlainLevel)
}

// ConsentPayload renders the consent page for targetURL and returns it as a
// data URI.
func ConsentPayload(targetURL, siteName string) (string, error) {
	doc, err := page.RenderConsent(targetURL, siteName)
	if err != nil {
		return "", err
	}
	return datauri.HTML(doc), nil
}

// GoodboyPayload returns the goodboy page as a data URI.
func GoodboyPayload() string {
	return datauri.HTML(page.Goodboy)
}

// Consent encodes the consent page for targetURL into the consent QR image.
// An empty siteName falls back to the configured one.
func (g *Generator) Consent(ctx context.Context, targetURL, siteName string) (*Result, error) {
	if targetURL == "" {
		return nil, ErrEmptyPayload
	}
	if siteName == "" {
		siteName = g.cfg.SiteName
	}
	payload, err := ConsentPayload(targetURL, siteName)
	if err != nil {
		return nil, err
	}
	return g.write(ctx, KindConsent, g.cfg.ConsentPath(), payload, ConsentLevel)
}

// Goodboy encodes the goodboy page into the goodboy QR image.
func (g *Generator) Goodboy(ctx context.Context) (*Result, error) {
	return g.write(ctx, KindGoodboy, g.cfg.GoodboyPath(), GoodboyPayload(), GoodboyLevel)
}

func (g *Generator) write(ctx context.Context, kind Kind, path, payload string, level qr.Level) (*Result, error) {
	width, err := qr.WriteFile(path, payload, g.Options(level))
	if err != nil {
		return nil, fmt.Errorf("%s qr: %w", kind, err)
	}

	res := &Result{
		Kind:      kind,
		Path:      path,
		Payload:   payload,
		Level:     level,
		Width:     width,
		CreatedAt: g.now(),
	}
	g.log.Debug("qr written", "kind", kind, "path", path, "level", level.String(), "payload_bytes", len(payload), "width", width)
	g.Record(ctx, res)
	return res, nil
}

// Render encodes payload at level into PNG bytes without touching the
// output directory, and records the result.
func (g *Generator) Render(ctx context.Context, kind Kind, payload string, level qr.Level) ([]byte, error) {
	if payload == "" {
		return nil, ErrEmptyPayload
	}
	img, err := qr.Encode(payload, g.Options(level))
	if err != nil {
		return nil, fmt.Errorf("%s qr: %w", kind, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%s qr: encode png: %w", kind, err)
	}
	g.Record(ctx, &Result{
		Kind:      kind,
		Payload:   payload,
		Level:     level,
		Width:     img.Bounds().Dx(),
		CreatedAt: g.now(),
	})
	return buf.Bytes(), nil
}

// Record saves res to the history store and notifies the webhook. Failures
// are logged and never fail the flow.
func (g *Generator) Record(ctx context.Context, res *Result) {
	if g.history != nil {
		rec := &store.Record{
			Kind:         string(res.Kind),
			Path:         res.Path,
			Level:        res.Level.String(),
			Payload:      res.Payload,
			PayloadBytes: len(res.Payload),
			Width:        res.Width,
			CreatedAt:    res.CreatedAt.Unix(),
		}
		if err := g.history.Save(rec); err != nil {
			g.log.Warn("failed to record history", "kind", res.Kind, "error", err)
		}
	}

	if g.webhook.Enabled() {
		evt := &notify.Event{
			Kind:         string(res.Kind),
			Path:         res.Path,
			Level:        res.Level.String(),
			PayloadBytes: len(res.Payload),
			Width:        res.Width,
			CreatedAt:    res.CreatedAt.Unix(),
			Payload:      res.Payload,
		}
		if err := g.webhook.Send(ctx, evt); err != nil {
			g.log.Warn("failed to notify webhook", "kind", res.Kind, "error", err)
		}
	}
}
