package discount

import (
	"crypto/rand"
	"io"
)

const (
	// GiftCardCodeLength is the number of characters in a generated gift card code.
	GiftCardCodeLength = 16
	codeAlphabet       = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateCode returns a random code of the given length drawn from [A-Z0-9].
// Bytes outside the largest multiple of the alphabet size are discarded so every
// character is equally likely.
func GenerateCode(length int) (string, error) {
	return generateCode(rand.Reader, length)
}

func generateCode(src io.Reader, length int) (string, error) {
	if length <= 0 {
		length = GiftCardCodeLength
	}
	const limit = 256 - 256%len(codeAlphabet)
	out := make([]byte, 0, length)
	buf := make([]byte, length*2)
	for len(out) < length {
		if _, err := io.ReadFull(src, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}
