// Package qr encodes payloads into QR-code images, renders them to PNG or a
// terminal, and decodes them back. Symbol construction is delegated to
// go-qrcode; this package owns the raster layout (box size, quiet zone,
// colors).
package qr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"

	"github.com/skip2/go-qrcode"
)

// ErrPayloadTooLarge is returned when a payload does not fit a version 40
// symbol at the requested error-correction level.
var ErrPayloadTooLarge = errors.New("payload exceeds QR capacity")

// Level is a QR error-correction level.
type Level int

const (
	LevelL Level = iota // ~7% recoverable
	LevelM              // ~15% recoverable
	LevelQ              // ~25% recoverable
	LevelH              // ~30% recoverable
)

// ParseLevel parses "L", "M", "Q" or "H" (case-insensitive).
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "L":
		return LevelL, nil
	case "M":
		return LevelM, nil
	case "Q":
		return LevelQ, nil
	case "H":
		return LevelH, nil
	}
	return 0, fmt.Errorf("unknown error-correction level %q", s)
}

func (l Level) String() string {
	switch l {
	case LevelL:
		return "L"
	case LevelM:
		return "M"
	case LevelQ:
		return "Q"
	case LevelH:
		return "H"
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// recovery maps l onto go-qrcode's names, which are shifted by one:
// its "High" is Q and its "Highest" is H.
func (l Level) recovery() qrcode.RecoveryLevel {
	switch l {
	case LevelL:
		return qrcode.Low
	case LevelQ:
		return qrcode.High
	case LevelH:
		return qrcode.Highest
	default:
		return qrcode.Medium
	}
}

// Options controls how a symbol is rasterised.
type Options struct {
	Level   Level
	BoxSize int // pixels per module
	Border  int // quiet-zone width in modules
	Fill    color.Color
	Back    color.Color
}

// DefaultOptions returns black-on-white, 10px modules and a 4 module border.
func DefaultOptions(level Level) Options {
	return Options{
		Level:   level,
		BoxSize: 10,
		Border:  4,
		Fill:    color.Black,
		Back:    color.White,
	}
}

func (o Options) normalized() Options {
	if o.BoxSize <= 0 {
		o.BoxSize = 1
	}
	if o.Border < 0 {
		o.Border = 0
	}
	if o.Fill == nil {
		o.Fill = color.Black
	}
	if o.Back == nil {
		o.Back = color.White
	}
	return o
}

// Symbol builds the module matrix for payload, without quiet zone. true is a
// dark module.
func Symbol(payload string, level Level) ([][]bool, error) {
	q, err := qrcode.New(payload, level.recovery())
	if err != nil {
		if strings.Contains(err.Error(), "too long") {
			return nil, fmt.Errorf("%w: %d bytes at level %s", ErrPayloadTooLarge, len(payload), level)
		}
		return nil, fmt.Errorf("build symbol: %w", err)
	}
	q.DisableBorder = true
	return q.Bitmap(), nil
}

// Encode returns payload as a two-color paletted image.
func Encode(payload string, opts Options) (*image.Paletted, error) {
	opts = opts.normalized()

	bits, err := Symbol(payload, opts.Level)
	if err != nil {
		return nil, err
	}

	modules := len(bits) + 2*opts.Border
	side := modules * opts.BoxSize
	img := image.NewPaletted(image.Rect(0, 0, side, side), color.Palette{opts.Back, opts.Fill})

	for y, row := range bits {
		for x, dark := range row {
			if !dark {
				continue
			}
			px := (x + opts.Border) * opts.BoxSize
			py := (y + opts.Border) * opts.BoxSize
			for dy := 0; dy < opts.BoxSize; dy++ {
				off := img.PixOffset(px, py+dy)
				for dx := 0; dx < opts.BoxSize; dx++ {
					img.Pix[off+dx] = 1
				}
			}
		}
	}
	return img, nil
}

// EncodePNG returns payload as PNG bytes.
func EncodePNG(payload string, opts Options) ([]byte, error) {
	img, err := Encode(payload, opts)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile encodes payload and writes it as a PNG to path, replacing any
// existing file. It returns the image width in pixels.
func WriteFile(path, payload string, opts Options) (int, error) {
	img, err := Encode(payload, opts)
	if err != nil {
		return 0, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return 0, fmt.Errorf("encode png: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return 0, fmt.Errorf("write %s: %w", path, err)
	}
	return img.Bounds().Dx(), nil
}
