package davclient

import (
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"
)

type BearerInfo struct {
	Subject   string
	Issuer    string
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry before now.
func (b *BearerInfo) Expired(now time.Time) bool {
	return !b.ExpiresAt.IsZero() && now.After(b.ExpiresAt)
}

// InspectBearer reads the claims of a jwt shaped token without verifying it.
// ok is false for opaque tokens.
func InspectBearer(token string) (*BearerInfo, bool, error) {
	if strings.Count(token, ".") != 2 {
		return nil, false, nil
	}
	tok, err := jwt.ParseInsecure([]byte(token))
	if err != nil {
		return nil, false, err
	}
	return &BearerInfo{
		Subject:   tok.Subject(),
		Issuer:    tok.Issuer(),
		ExpiresAt: tok.Expiration(),
	}, true, nil
}
