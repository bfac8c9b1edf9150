package card

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	DefaultQRSize = 256
	MinQRSize     = 64
	MaxQRSize     = 1024
)

// QRCode renders content as a PNG QR code of size x size pixels.
func QRCode(content string, size int) ([]byte, error) {
	if size < MinQRSize || size > MaxQRSize {
		return nil, fmt.Errorf("QR size %d out of range [%d, %d]", size, MinQRSize, MaxQRSize)
	}
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode QR code: %w", err)
	}
	return png, nil
}

// QRText renders content as a QR code drawn with block characters for
// terminals.
func QRText(content string) (string, error) {
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("encode QR code: %w", err)
	}
	return q.ToSmallString(false), nil
}
