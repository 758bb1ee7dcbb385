// Package qr renders registration links as QR PNG images. The session
// service depends only on the Encoder interface; pixel-level concerns stay
// behind it.
package qr

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// Encoder turns a link into PNG bytes.
type Encoder interface {
	Encode(link string) ([]byte, error)
}

// PNGEncoder renders with go-qrcode at a fixed edge size.
type PNGEncoder struct {
	Size int
}

func NewPNGEncoder() *PNGEncoder { return &PNGEncoder{Size: 512} }

func (e *PNGEncoder) Encode(link string) ([]byte, error) {
	size := e.Size
	if size <= 0 {
		size = 512
	}
	png, err := qrcode.Encode(link, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
