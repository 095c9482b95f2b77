package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// GenerateKeyPair creates a new Ed25519 key pair and returns both halves
// base64-encoded, matching the encoding used throughout the contract and
// reflexive subsystems so keys can travel through JSON untouched.
func GenerateKeyPair() (publicKeyB64 string, privateKeyB64 string, err error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("generate ed25519 key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(pub), base64.StdEncoding.EncodeToString(priv), nil
}

// Sign signs msg with a base64-encoded private key and returns a
// base64-encoded signature.
func Sign(privateKeyB64 string, msg []byte) (string, error) {
	priv, err := base64.StdEncoding.DecodeString(privateKeyB64)
	if err != nil {
		return "", fmt.Errorf("decode private key: %w", err)
	}
	if len(priv) != ed25519.PrivateKeySize {
		return "", fmt.Errorf("invalid private key size: %d", len(priv))
	}
	sig := ed25519.Sign(ed25519.PrivateKey(priv), msg)
	return base64.StdEncoding.EncodeToString(sig), nil
}

// Verify verifies a base64 signature over msg against a base64 public
// key. Per the crypto contract it MUST return false rather than an error
// for any malformed input — callers never need to distinguish "bad
// encoding" from "bad signature".
func Verify(publicKeyB64 string, msg []byte, signatureB64 string) bool {
	pub, err := base64.StdEncoding.DecodeString(publicKeyB64)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return false
	}
	sig, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub), msg, sig)
}

// PublicKeyFromPrivate derives the base64 public key from a base64
// private key.
func PublicKeyFromPrivate(privateKeyB64 string) (string, error) {
	priv, err := base64.StdEncoding.DecodeString(privateKeyB64)
	if err != nil {
		return "", fmt.Errorf("decode private key: %w", err)
	}
	if len(priv) != ed25519.PrivateKeySize {
		return "", fmt.Errorf("invalid private key size: %d", len(priv))
	}
	pub := ed25519.PrivateKey(priv).Public().(ed25519.PublicKey)
	return base64.StdEncoding.EncodeToString(pub), nil
}
