package qrcode

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// RegistrationPNG renders the redemption URL for a credential code as a
// QR code PNG.
func RegistrationPNG(host, code string) ([]byte, error) {
	uri := fmt.Sprintf("http://%s/redeem/%s", host, code)
	return qrcode.Encode(uri, qrcode.Medium, 256)
}
