package jwk

import (
	"crypto"
	"crypto/x509"
	"encoding/asn1"
	"errors"
	"fmt"

	"github.com/cloudflare/circl/sign/ed448"
	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// RFC 8410: id-Ed448.
var oidEd448 = asn1.ObjectIdentifier{1, 3, 101, 113}

// marshalEd448PKCS8 arma el OneAsymmetricKey v0 de RFC 8410:
//
//	SEQUENCE { INTEGER 0, SEQUENCE { OID id-Ed448 }, OCTET STRING { OCTET STRING seed } }
//
// crypto/x509 no conoce Ed448, por eso se construye a mano.
func marshalEd448PKCS8(seed []byte) ([]byte, error) {
	if len(seed) != ed448.SeedSize {
		return nil, fmt.Errorf("ed448 seed must be %d bytes, got %d", ed448.SeedSize, len(seed))
	}
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1Int64(0)
		b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1ObjectIdentifier(oidEd448)
		})
		b.AddASN1(cbasn1.OCTET_STRING, func(b *cryptobyte.Builder) {
			b.AddASN1OctetString(seed)
		})
	})
	return b.Bytes()
}

func parseEd448PKCS8(der []byte) (ed448.PrivateKey, bool) {
	var (
		input   = cryptobyte.String(der)
		pkcs8   cryptobyte.String
		algo    cryptobyte.String
		wrapped cryptobyte.String
		version int64
		oid     asn1.ObjectIdentifier
		seed    cryptobyte.String
	)
	if !input.ReadASN1(&pkcs8, cbasn1.SEQUENCE) || !input.Empty() {
		return nil, false
	}
	if !pkcs8.ReadASN1Integer(&version) || version != 0 {
		return nil, false
	}
	if !pkcs8.ReadASN1(&algo, cbasn1.SEQUENCE) || !algo.ReadASN1ObjectIdentifier(&oid) || !oid.Equal(oidEd448) {
		return nil, false
	}
	if !pkcs8.ReadASN1(&wrapped, cbasn1.OCTET_STRING) || !wrapped.ReadASN1(&seed, cbasn1.OCTET_STRING) {
		return nil, false
	}
	if len(seed) != ed448.SeedSize {
		return nil, false
	}
	return ed448.NewKeyFromSeed(seed), true
}

// ParsePrivateKey decodifica cualquier contenedor PKCS#8 que emite Generator:
// RSA, ECDSA, Ed25519 (crypto/x509) y Ed448.
func ParsePrivateKey(der []byte) (crypto.Signer, error) {
	if k, ok := parseEd448PKCS8(der); ok {
		return k, nil
	}
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not a signer", ErrEncoding, key)
	}
	return signer, nil
}

var errEmptyPrivateKey = errors.New("empty private key")
