package security

import (
	"crypto/rand"
	"fmt"
)

// codeAlphabet excludes easily-confused characters (0/O, 1/I/L) so staff
// can read codes back over the counter.
const codeAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

// NewRedemptionCode generates a random 12-character redemption code in
// three dash-separated groups, e.g. "7KQM-2XNP-9RVW".
func NewRedemptionCode() (string, error) {
	raw := make([]byte, 12)
	if _, errRead := rand.Read(raw); errRead != nil {
		return "", fmt.Errorf("generate redemption code: %w", errRead)
	}
	out := make([]byte, 0, 14)
	for i, b := range raw {
		if i > 0 && i%4 == 0 {
			out = append(out, '-')
		}
		out = append(out, codeAlphabet[int(b)%len(codeAlphabet)])
	}
	return string(out), nil
}

// NewQRToken generates an opaque token embedded in action QR codes.
func NewQRToken() (string, error) {
	raw := make([]byte, 20)
	if _, errRead := rand.Read(raw); errRead != nil {
		return "", fmt.Errorf("generate qr token: %w", errRead)
	}
	out := make([]byte, len(raw))
	for i, b := range raw {
		out[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(out), nil
}
