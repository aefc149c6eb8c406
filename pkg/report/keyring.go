package report

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// KeyProvider abstracts the signing backend so the in-memory keypair can be
// swapped for an HSM or KMS without touching certification logic. Signer
// must produce ed25519 signatures; the JWT layer enforces this.
type KeyProvider interface {
	Signer() crypto.Signer
	PublicKey() ed25519.PublicKey
}

// MemoryKeyProvider holds an ephemeral ed25519 keypair. Suitable for
// development and tests; production deployments derive or import keys.
type MemoryKeyProvider struct {
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
}

// NewMemoryKeyProvider generates a fresh keypair.
func NewMemoryKeyProvider() (*MemoryKeyProvider, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate certification key: %w", err)
	}
	return &MemoryKeyProvider{pub: pub, priv: priv}, nil
}

// NewDerivedKeyProvider derives a deterministic keypair from a seed secret
// via HKDF-SHA256, so a deployment can reproduce its certification key from
// configured key material.
func NewDerivedKeyProvider(secret []byte) (*MemoryKeyProvider, error) {
	r := hkdf.New(sha256.New, secret, nil, []byte("kanun/report-certification/v1"))
	seed := make([]byte, ed25519.SeedSize)
	if _, err := io.ReadFull(r, seed); err != nil {
		return nil, fmt.Errorf("derive certification key: %w", err)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &MemoryKeyProvider{pub: priv.Public().(ed25519.PublicKey), priv: priv}, nil
}

func (m *MemoryKeyProvider) Signer() crypto.Signer { return m.priv }

func (m *MemoryKeyProvider) PublicKey() ed25519.PublicKey { return m.pub }

// Fingerprint returns the short identifier of a public key, used in report
// footers so a verifier knows which key to fetch.
func Fingerprint(pub ed25519.PublicKey) string {
	sum := sha256.Sum256(pub)
	return "ed25519:" + hex.EncodeToString(sum[:8])
}
