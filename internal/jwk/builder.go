package jwk

import (
	"crypto/rsa"
	"fmt"
)

// Builder encadena Generator -> Encoder -> CertificateIssuer (solo RSA).
type Builder struct {
	Generator *Generator
	Encoder   *Encoder
	Issuer    *CertificateIssuer
}

// NewBuilder arma un Builder con crypto/rand, kid UUIDv4 y el tamaño RSA indicado.
func NewBuilder(rsaBits int) *Builder {
	return &Builder{
		Generator: NewGenerator(rsaBits),
		Encoder:   &Encoder{},
		Issuer:    &CertificateIssuer{},
	}
}

// Build genera y codifica una clave nueva. Cualquier error aborta sin resultado parcial.
func (b *Builder) Build(alg Algorithm) (*Fields, error) {
	if !alg.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg)
	}
	m, err := b.Generator.Generate(alg)
	if err != nil {
		return nil, err
	}
	f, err := b.Encoder.Encode(m, alg)
	if err != nil {
		return nil, err
	}
	if alg.Family() != FamilyRSA {
		return f, nil
	}

	pub, ok := m.PublicKey().(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: rsa material without rsa public key", ErrEncoding)
	}
	x5c, x5t, err := b.Issuer.Issue(pub, m.Signer(), alg)
	if err != nil {
		return nil, err
	}
	f.X5c = x5c
	f.X5t = x5t
	return f, nil
}
