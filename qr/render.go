// Package qr moves encoded conversation buffers in and out of QR code
// images. The codec treats these routines as the external
// collaborator owning the symbol itself; nothing here touches the
// wire format.
package qr

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"qrchat/codec"
)

// levelFor maps a capacity ceiling name to the matching recovery
// level so the symbol's redundancy agrees with the byte budget the
// buffer was encoded under.
func levelFor(level string) qrcode.RecoveryLevel {
	switch level {
	case "m", "M":
		return qrcode.Medium
	case "q", "Q":
		return qrcode.High
	case "h", "H":
		return qrcode.Highest
	}
	return qrcode.Low
}

// Render writes buf as a PNG QR code of size pixels per side. The
// buffer must respect the capacity ceiling of the chosen level;
// oversized buffers are rejected here rather than producing an
// unscannable symbol.
func Render(buf []byte, level string, size int, path string) error {
	if max := codec.CapacityForLevel(level); len(buf) > max {
		return fmt.Errorf("buffer is %d bytes, level %s holds %d", len(buf), level, max)
	}
	// go-qrcode takes string content; Go strings carry arbitrary bytes.
	return qrcode.WriteFile(string(buf), levelFor(level), size, path)
}
