package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
)

const (
	ivSize  = 12
	tagSize = 16
)

// normalizeKey ensures the key is exactly 32 bytes for AES-256
func normalizeKey(secret string) []byte {
	key := []byte(secret)
	if len(key) < 32 {
		paddedKey := make([]byte, 32)
		copy(paddedKey, key)
		return paddedKey
	}
	return key[:32]
}

// EncryptString encrypts plaintext using AES-256-GCM with the given secret key.
// The output is hex(iv) || hex(auth tag) || hex(cipher output).
func EncryptString(secret, plaintext string) (string, error) {
	if secret == "" {
		return "", errors.New("secret key cannot be empty")
	}

	block, err := aes.NewCipher(normalizeKey(secret))
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	// Seal appends the auth tag after the cipher output; the stored
	// format carries the tag before the cipher output instead.
	sealed := gcm.Seal(nil, iv, []byte(plaintext), nil)
	body := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	return hex.EncodeToString(iv) + hex.EncodeToString(tag) + hex.EncodeToString(body), nil
}

// DecryptString decrypts a hex(iv) || hex(tag) || hex(cipher output) string
// produced by EncryptString. Any tampering fails the auth check.
func DecryptString(secret, ciphertext string) (string, error) {
	if secret == "" {
		return "", errors.New("secret key cannot be empty")
	}

	data, err := hex.DecodeString(ciphertext)
	if err != nil {
		return "", err
	}
	if len(data) < ivSize+tagSize {
		return "", errors.New("ciphertext too short")
	}

	iv := data[:ivSize]
	tag := data[ivSize : ivSize+tagSize]
	body := data[ivSize+tagSize:]

	block, err := aes.NewCipher(normalizeKey(secret))
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	sealed := make([]byte, 0, len(body)+tagSize)
	sealed = append(sealed, body...)
	sealed = append(sealed, tag...)

	plaintext, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}
