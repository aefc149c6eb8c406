package report

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const certIssuer = "kanun/report"

// CertClaims is the claim set of a report certification token. The token
// binds the certifier's identity to the report's canonical content hash, so
// any later tampering with the report body invalidates the certification.
type CertClaims struct {
	jwt.RegisteredClaims
	CheckID     string `json:"check_id"`
	ContentHash string `json:"content_hash"`
	CertifiedBy string `json:"certified_by"`
}

// Certifier mints and verifies EdDSA certification tokens.
type Certifier struct {
	keys  KeyProvider
	clock func() time.Time
}

// NewCertifier creates a certifier over a key provider.
func NewCertifier(keys KeyProvider) *Certifier {
	return &Certifier{keys: keys, clock: time.Now}
}

// WithClock overrides the clock for testing.
func (c *Certifier) WithClock(clock func() time.Time) *Certifier {
	c.clock = clock
	return c
}

// Fingerprint identifies the active signing key.
func (c *Certifier) Fingerprint() string {
	return Fingerprint(c.keys.PublicKey())
}

// Certify signs a report's content hash. validity of zero means the token
// carries no expiry and the report has no valid-until date.
func (c *Certifier) Certify(r *Report, certifiedBy string, validity time.Duration) (string, *time.Time, error) {
	now := c.clock().UTC()
	claims := CertClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  r.ID,
			Issuer:   certIssuer,
			IssuedAt: jwt.NewNumericDate(now),
		},
		CheckID:     r.CheckID,
		ContentHash: r.ContentHash,
		CertifiedBy: certifiedBy,
	}
	var validUntil *time.Time
	if validity > 0 {
		exp := now.Add(validity)
		claims.ExpiresAt = jwt.NewNumericDate(exp)
		validUntil = &exp
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	signed, err := token.SignedString(c.keys.Signer())
	if err != nil {
		return "", nil, fmt.Errorf("sign certification: %w", err)
	}
	return signed, validUntil, nil
}

// Verify checks a certification token against the active key and returns
// its claims.
func (c *Certifier) Verify(tokenString string) (*CertClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CertClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.keys.PublicKey(), nil
	}, jwt.WithIssuer(certIssuer))
	if err != nil {
		return nil, fmt.Errorf("verify certification: %w", err)
	}
	claims, ok := token.Claims.(*CertClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("verify certification: invalid claims")
	}
	return claims, nil
}
