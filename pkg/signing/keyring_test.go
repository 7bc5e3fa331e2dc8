package signing

import (
	"bytes"
	"crypto/ed25519"
	"testing"
)

func TestMemoryKeyProviderSigns(t *testing.T) {
	provider, err := NewMemoryKeyProvider()
	if err != nil {
		t.Fatal(err)
	}
	msg := []byte("approved asset-1 proposal 1")
	sig, err := provider.Sign(msg)
	if err != nil {
		t.Fatal(err)
	}
	if !ed25519.Verify(provider.PublicKey(), msg, sig) {
		t.Fatal("signature must verify against the provider's public key")
	}
}

func TestDeriveKeyProviderDeterministic(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")

	a, err := DeriveKeyProvider(secret, "receipts")
	if err != nil {
		t.Fatal(err)
	}
	b, err := DeriveKeyProvider(secret, "receipts")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.PublicKey(), b.PublicKey()) {
		t.Fatal("same secret and label must derive the same key")
	}

	other, err := DeriveKeyProvider(secret, "other")
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(a.PublicKey(), other.PublicKey()) {
		t.Fatal("different labels must derive different keys")
	}
}

func TestDeriveKeyProviderRejectsShortSecret(t *testing.T) {
	if _, err := DeriveKeyProvider([]byte("short"), "receipts"); err == nil {
		t.Fatal("expected error for short master secret")
	}
}
