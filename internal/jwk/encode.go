package jwk

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

// Fields es el conjunto de campos JOSE de una clave. Los opcionales vacíos
// no aplican a la familia del algoritmo.
type Fields struct {
	Kty        string
	Alg        string
	Kid        string
	Crv        string
	X          string
	Y          string
	N          string
	E          string
	X5c        []string
	X5t        string
	PrivateKey string
}

// Encoder convierte KeyMaterial en Fields.
// NewKID permite fijar el kid en tests; por defecto es un UUIDv4 aleatorio.
type Encoder struct {
	NewKID func() string
}

func (e *Encoder) kid() string {
	if e != nil && e.NewKID != nil {
		return e.NewKID()
	}
	return uuid.NewString()
}

// b64 es base64url sin padding (RFC 7515 §2).
func b64(b []byte) string { return base64.RawURLEncoding.EncodeToString(b) }

// Encode aplica las reglas de codificación de la familia de alg.
// Sin x5c/x5t: eso lo agrega CertificateIssuer.
func (e *Encoder) Encode(m *KeyMaterial, alg Algorithm) (*Fields, error) {
	if !alg.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: nil key material", ErrEncoding)
	}
	if m.Algorithm != alg {
		return nil, fmt.Errorf("%w: material generated for %s, encoding as %s", ErrEncoding, m.Algorithm, alg)
	}
	if len(m.PrivateKey) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, errEmptyPrivateKey)
	}

	f := &Fields{
		Kty:        alg.KeyType(),
		Alg:        alg.JWA(),
		Kid:        e.kid(),
		PrivateKey: b64(m.PrivateKey),
	}

	switch alg.Family() {
	case FamilyRSA:
		if m.N == nil || m.N.Sign() <= 0 || m.E <= 0 {
			return nil, fmt.Errorf("%w: missing rsa modulus or exponent", ErrEncoding)
		}
		f.N = b64(m.N.Bytes())
		f.E = b64(big.NewInt(int64(m.E)).Bytes())

	case FamilyEC:
		size := alg.coordinateSize()
		x, err := leftPad(m.X, size)
		if err != nil {
			return nil, fmt.Errorf("%w: x: %w", ErrEncoding, err)
		}
		y, err := leftPad(m.Y, size)
		if err != nil {
			return nil, fmt.Errorf("%w: y: %w", ErrEncoding, err)
		}
		f.Crv = alg.Curve()
		f.X = b64(x)
		f.Y = b64(y)

	case FamilyEdDSA:
		if len(m.Public) != alg.coordinateSize() {
			return nil, fmt.Errorf("%w: %s public key must be %d bytes, got %d",
				ErrEncoding, alg.Curve(), alg.coordinateSize(), len(m.Public))
		}
		f.Crv = alg.Curve()
		f.X = b64(m.Public)
	}
	return f, nil
}

// leftPad rellena con ceros a la izquierda hasta size. Más largo que size es un error.
func leftPad(b []byte, size int) ([]byte, error) {
	if len(b) == 0 {
		return nil, errors.New("empty coordinate")
	}
	if len(b) > size {
		return nil, fmt.Errorf("coordinate is %d bytes, curve field is %d", len(b), size)
	}
	if len(b) == size {
		return b, nil
	}
	out := make([]byte, size)
	copy(out[size-len(b):], b)
	return out, nil
}
