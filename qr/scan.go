package qr

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/makiuchi-d/gozxing"
	zxqr "github.com/makiuchi-d/gozxing/qrcode"
)

// ErrNoSymbol is returned when no QR code could be located in an image.
var ErrNoSymbol = errors.New("no QR code found in image")

// ScanFile opens an image file and decodes a QR code from it.
func ScanFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening image file: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("decoding image: %w", err)
	}

	return Decode(img)
}

// Decode returns the text of the QR code in img. Clean rasters such as the
// ones Encode produces are read with the pure-barcode path; anything else
// (photos, skewed scans) falls back to full detection.
func Decode(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("creating bitmap: %w", err)
	}

	reader := zxqr.NewQRCodeReader()
	pure := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_PURE_BARCODE:  true,
		gozxing.DecodeHintType_CHARACTER_SET: "UTF-8",
	}
	if result, err := reader.Decode(bmp, pure); err == nil {
		return result.GetText(), nil
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER:    true,
		gozxing.DecodeHintType_CHARACTER_SET: "UTF-8",
	}
	result, err := reader.Decode(bmp, hints)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoSymbol, err)
	}

	return result.GetText(), nil
}
