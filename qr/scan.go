package qr

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/makiuchi-d/gozxing"
	qrreader "github.com/makiuchi-d/gozxing/qrcode"

	"qrchat/errors"
)

// Scan reads a QR code image from path and returns the raw payload
// bytes. The file type is sniffed before image decoding so a stray
// text file fails with a clear error instead of a decoder panic deep
// inside image.Decode.
func Scan(path string) ([]byte, error) {
	mime, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, err
	}
	if !mime.Is("image/png") && !mime.Is("image/jpeg") {
		return nil, fmt.Errorf("%s is %s: %w", path, mime.String(), errors.ErrNotAnImage)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, err
	}
	// Force Latin-1 so every payload byte maps to exactly one rune and
	// the text below converts back losslessly.
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_CHARACTER_SET: "ISO-8859-1",
	}
	result, err := qrreader.NewQRCodeReader().Decode(bmp, hints)
	if err != nil {
		return nil, fmt.Errorf("no QR code found in %s: %w", path, err)
	}
	return latin1Bytes(result.GetText())
}

func latin1Bytes(s string) ([]byte, error) {
	buf := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xff {
			return nil, fmt.Errorf("scanned payload rune %U is not a byte", r)
		}
		buf = append(buf, byte(r))
	}
	return buf, nil
}
