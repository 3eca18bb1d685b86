package jwk

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"fmt"
	"io"
	"math/big"

	"github.com/cloudflare/circl/sign/ed448"
)

// DefaultRSABits es el tamaño de módulo por defecto y el mínimo aceptado en producción.
const DefaultRSABits = 2048

// KeyMaterial es el par de claves crudo recién generado.
// Solo uno de los grupos de campos públicos está poblado según la familia.
type KeyMaterial struct {
	Algorithm Algorithm

	// RSA
	N *big.Int
	E int

	// EC: coordenadas afines big-endian, ya del tamaño de la curva.
	X []byte
	Y []byte

	// EdDSA: clave pública cruda.
	Public []byte

	// PrivateKey es la clave privada en PKCS#8 DER.
	PrivateKey []byte

	signer crypto.Signer
}

// Signer devuelve la clave privada como crypto.Signer.
// Lo usa CertificateIssuer para autofirmar el certificado RSA.
func (m *KeyMaterial) Signer() crypto.Signer { return m.signer }

// PublicKey devuelve la clave pública en su tipo nativo.
func (m *KeyMaterial) PublicKey() crypto.PublicKey {
	if m.signer == nil {
		return nil
	}
	return m.signer.Public()
}

// Generator produce pares de claves. El valor cero usa crypto/rand y 2048 bits.
// Es seguro para uso concurrente siempre que Rand lo sea.
type Generator struct {
	Rand    io.Reader
	RSABits int
}

// NewGenerator crea un Generator con crypto/rand y el tamaño RSA indicado.
func NewGenerator(rsaBits int) *Generator {
	return &Generator{Rand: rand.Reader, RSABits: rsaBits}
}

func (g *Generator) random() io.Reader {
	if g == nil || g.Rand == nil {
		return rand.Reader
	}
	return g.Rand
}

func (g *Generator) rsaBits() int {
	if g == nil || g.RSABits <= 0 {
		return DefaultRSABits
	}
	return g.RSABits
}

// Generate crea un par de claves nuevo para alg.
func (g *Generator) Generate(alg Algorithm) (*KeyMaterial, error) {
	switch alg.Family() {
	case FamilyRSA:
		return g.generateRSA(alg)
	case FamilyEC:
		return g.generateEC(alg)
	case FamilyEdDSA:
		return g.generateEdDSA(alg)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg)
}

func (g *Generator) generateRSA(alg Algorithm) (*KeyMaterial, error) {
	priv, err := rsa.GenerateKey(g.random(), g.rsaBits())
	if err != nil {
		return nil, fmt.Errorf("%w: rsa %d: %w", ErrGeneration, g.rsaBits(), err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("%w: pkcs8: %w", ErrGeneration, err)
	}
	return &KeyMaterial{
		Algorithm:  alg,
		N:          priv.N,
		E:          priv.E,
		PrivateKey: der,
		signer:     priv,
	}, nil
}

func curveFor(alg Algorithm) elliptic.Curve {
	switch alg {
	case ES256:
		return elliptic.P256()
	case ES384:
		return elliptic.P384()
	case ES512:
		return elliptic.P521()
	}
	return nil
}

func (g *Generator) generateEC(alg Algorithm) (*KeyMaterial, error) {
	priv, err := ecdsa.GenerateKey(curveFor(alg), g.random())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrGeneration, alg.Curve(), err)
	}
	x, y, err := affineCoordinates(&priv.PublicKey, alg.coordinateSize())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("%w: pkcs8: %w", ErrGeneration, err)
	}
	return &KeyMaterial{
		Algorithm:  alg,
		X:          x,
		Y:          y,
		PrivateKey: der,
		signer:     priv,
	}, nil
}

// affineCoordinates extrae (x, y) del punto sin comprimir 0x04||X||Y,
// que ya viene rellenado al tamaño del campo.
func affineCoordinates(pub *ecdsa.PublicKey, size int) ([]byte, []byte, error) {
	ek, err := pub.ECDH()
	if err != nil {
		return nil, nil, err
	}
	raw := ek.Bytes()
	if len(raw) != 1+2*size || raw[0] != 4 {
		return nil, nil, fmt.Errorf("unexpected point encoding (%d bytes)", len(raw))
	}
	return raw[1 : 1+size], raw[1+size:], nil
}

func (g *Generator) generateEdDSA(alg Algorithm) (*KeyMaterial, error) {
	switch alg {
	case Ed25519:
		pub, priv, err := ed25519.GenerateKey(g.random())
		if err != nil {
			return nil, fmt.Errorf("%w: ed25519: %w", ErrGeneration, err)
		}
		der, err := x509.MarshalPKCS8PrivateKey(priv)
		if err != nil {
			return nil, fmt.Errorf("%w: pkcs8: %w", ErrGeneration, err)
		}
		return &KeyMaterial{Algorithm: alg, Public: pub, PrivateKey: der, signer: priv}, nil

	case Ed448:
		pub, priv, err := ed448.GenerateKey(g.random())
		if err != nil {
			return nil, fmt.Errorf("%w: ed448: %w", ErrGeneration, err)
		}
		der, err := marshalEd448PKCS8(priv.Seed())
		if err != nil {
			return nil, fmt.Errorf("%w: pkcs8: %w", ErrGeneration, err)
		}
		return &KeyMaterial{Algorithm: alg, Public: pub, PrivateKey: der, signer: priv}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg)
}
