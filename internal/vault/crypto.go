// Package vault stores per-athlete OAuth credentials encrypted at rest and
// keeps access tokens fresh.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// ivSize is the GCM nonce length used for token envelopes. 16 bytes matches
// the envelopes already written by earlier deployments, so it cannot change
// without a re-encryption migration.
const ivSize = 16

// Encrypt seals a token with AES-256-GCM under key (32 bytes) and returns
// the envelope hex(iv):hex(tag):hex(ciphertext). A fresh random IV is drawn
// per call.
func Encrypt(key []byte, plaintext string) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generating iv: %w", err)
	}

	sealed := gcm.Seal(nil, iv, []byte(plaintext), nil)
	tagStart := len(sealed) - gcm.Overhead()
	ciphertext, tag := sealed[:tagStart], sealed[tagStart:]

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(tag) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decrypt opens an envelope produced by Encrypt. A corrupted or tampered
// segment fails with an error; GCM authentication means garbage is never
// returned as a token.
func Decrypt(key []byte, envelope string) (string, error) {
	parts := strings.Split(envelope, ":")
	if len(parts) != 3 {
		return "", fmt.Errorf("malformed token envelope: expected iv:tag:ciphertext")
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("decoding iv: %w", err)
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("decoding auth tag: %w", err)
	}
	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", fmt.Errorf("decoding ciphertext: %w", err)
	}
	if len(iv) != ivSize {
		return "", fmt.Errorf("malformed token envelope: iv must be %d bytes", ivSize)
	}

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	plaintext, err := gcm.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("opening token envelope: %w", err)
	}
	return string(plaintext), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return nil, fmt.Errorf("creating gcm: %w", err)
	}
	return gcm, nil
}
