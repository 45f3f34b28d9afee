package qrtoken

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

// RenderPNG encodes payload as a QR code image of size x size pixels.
func RenderPNG(payload string, size int) ([]byte, error) {
	if size <= 0 {
		size = 300
	}
	png, err := qrcode.Encode(payload, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}
	return png, nil
}
