package payment

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

// RenderQR encodes a PIX code into a square PNG of the given pixel size.
func RenderQR(code string, size int) ([]byte, error) {
	if size <= 0 {
		size = 400
	}
	png, err := qrcode.Encode(code, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("payment: render qr: %w", err)
	}
	return png, nil
}
