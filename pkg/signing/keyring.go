// Package signing provides the steward's receipt-signing keys. Approved
// events are signed so monitoring can authenticate them; the key backend
// is swappable for an HSM or KMS.
package signing

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// KeyProvider signs steward receipts.
type KeyProvider interface {
	Sign(msg []byte) ([]byte, error)
	PublicKey() ed25519.PublicKey
}

// MemoryKeyProvider holds a freshly generated key pair. Development only.
type MemoryKeyProvider struct {
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
}

// NewMemoryKeyProvider generates an ephemeral key pair.
func NewMemoryKeyProvider() (*MemoryKeyProvider, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &MemoryKeyProvider{pub: pub, priv: priv}, nil
}

// Sign signs msg with the held private key.
func (m *MemoryKeyProvider) Sign(msg []byte) ([]byte, error) {
	return ed25519.Sign(m.priv, msg), nil
}

// PublicKey returns the verification key.
func (m *MemoryKeyProvider) PublicKey() ed25519.PublicKey { return m.pub }

// DeriveKeyProvider derives a deterministic signing key from a master
// secret via HKDF-SHA256 with a context label, so restarts keep the same
// verification key without persisting private key material.
func DeriveKeyProvider(masterSecret []byte, label string) (*MemoryKeyProvider, error) {
	if len(masterSecret) < 16 {
		return nil, fmt.Errorf("master secret must be at least 16 bytes")
	}
	reader := hkdf.New(sha256.New, masterSecret, nil, []byte("steward/"+label))
	seed := make([]byte, ed25519.SeedSize)
	if _, err := io.ReadFull(reader, seed); err != nil {
		return nil, fmt.Errorf("derive signing seed: %w", err)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &MemoryKeyProvider{
		pub:  priv.Public().(ed25519.PublicKey),
		priv: priv,
	}, nil
}
