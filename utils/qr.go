package utils

import (
	"bytes"
	"image/png"
	"strings"

	"github.com/skip2/go-qrcode"
)

// GenerateQRCode returns content as a PNG QR code.
func GenerateQRCode(content string, size int) ([]byte, error) {
	qr, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	err = png.Encode(buf, qr.Image(size))
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// SmartmenuURL is the address printed on a table's QR code.
func SmartmenuURL(base, slug string) string {
	return strings.TrimRight(base, "/") + "/smartmenus/" + slug
}
