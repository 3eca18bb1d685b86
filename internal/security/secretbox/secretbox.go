// Package secretbox cifra material sensible en reposo con AES-256-GCM.
//
// Formato: "sb1:" + base64url(nonce || ciphertext). Un valor sin el prefijo se
// trata como texto plano heredado y Open lo devuelve tal cual.
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// Prefix marca un valor sellado.
	Prefix = "sb1:"

	nonceSizeGCM      = 12 // AES-GCM nonce size recomendado (96 bits)
	requiredKeyLength = 32 // 32 bytes => AES-256
)

var (
	ErrInvalidKey    = errors.New("secretbox: invalid key")
	ErrMalformed     = errors.New("secretbox: malformed value")
	ErrDecryptFailed = errors.New("secretbox: decrypt failed")
)

// Box sella y abre valores con una clave fija. Es seguro para uso concurrente.
type Box struct {
	aead cipher.AEAD
	rand io.Reader
}

// New crea un Box a partir de 32 bytes crudos.
func New(key []byte) (*Box, error) {
	if len(key) != requiredKeyLength {
		return nil, fmt.Errorf("%w: %d bytes (requiere %d)", ErrInvalidKey, len(key), requiredKeyLength)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return &Box{aead: aesgcm, rand: rand.Reader}, nil
}

// FromString decodifica la clave maestra (base64 std, base64 sin padding o hex
// de 64 chars) y crea el Box.
// Genere una con: openssl rand -base64 32
func FromString(key string) (*Box, error) {
	key = strings.TrimSpace(key)
	if b, err := base64.StdEncoding.DecodeString(key); err == nil && len(b) == requiredKeyLength {
		return New(b)
	}
	if b, err := base64.RawStdEncoding.DecodeString(key); err == nil && len(b) == requiredKeyLength {
		return New(b)
	}
	if len(key) == 64 {
		if h, err := hex.DecodeString(key); err == nil {
			return New(h)
		}
	}
	return nil, fmt.Errorf("%w: se espera base64 o hex de %d bytes", ErrInvalidKey, requiredKeyLength)
}

// Seal cifra plain. Cada llamada usa un nonce nuevo.
func (b *Box) Seal(plain string) (string, error) {
	nonce := make([]byte, nonceSizeGCM, nonceSizeGCM+len(plain)+b.aead.Overhead())
	if _, err := io.ReadFull(b.rand, nonce); err != nil {
		return "", fmt.Errorf("nonce random: %w", err)
	}
	out := b.aead.Seal(nonce, nonce, []byte(plain), nil)
	return Prefix + base64.RawURLEncoding.EncodeToString(out), nil
}

// Open descifra un valor producido por Seal. Sin prefijo devuelve v sin tocar.
func (b *Box) Open(v string) (string, error) {
	if !IsSealed(v) {
		return v, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(v, Prefix))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(raw) < nonceSizeGCM+b.aead.Overhead() {
		return "", ErrMalformed
	}
	plain, err := b.aead.Open(nil, raw[:nonceSizeGCM], raw[nonceSizeGCM:], nil)
	if err != nil {
		return "", ErrDecryptFailed
	}
	return string(plain), nil
}

// IsSealed indica si v tiene el formato de Seal.
func IsSealed(v string) bool { return strings.HasPrefix(v, Prefix) }
