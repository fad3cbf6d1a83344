package token

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	alphabet = "0123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"
	size     = 32
)

// Issuer mints opaque, URL safe tokens stored alongside events and ratings.
type Issuer struct {
	size int
}

// NewIssuer returns an issuer using the default token length.
func NewIssuer() *Issuer {
	return &Issuer{size: size}
}

// New returns a fresh random token.
func (i *Issuer) New() (string, error) {
	n := size
	if i != nil && i.size > 0 {
		n = i.size
	}
	tok, err := gonanoid.Generate(alphabet, n)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return tok, nil
}
