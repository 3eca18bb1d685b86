package jwk

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"io"
	"math/big"
	"time"
)

// CertificateSubject es el CN del certificado autofirmado.
const CertificateSubject = "ANONYMOUS"

// CertificateIssuer emite un certificado X.509 v3 autofirmado para claves RSA.
// El certificado solo transporta la clave pública en x5c; su ventana de
// validez no influye en la disponibilidad de la clave.
type CertificateIssuer struct {
	Rand     io.Reader
	Now      func() time.Time
	Validity time.Duration
}

func (ci *CertificateIssuer) random() io.Reader {
	if ci == nil || ci.Rand == nil {
		return rand.Reader
	}
	return ci.Rand
}

func (ci *CertificateIssuer) now() time.Time {
	if ci == nil || ci.Now == nil {
		return time.Now().UTC()
	}
	return ci.Now().UTC()
}

func (ci *CertificateIssuer) validity() time.Duration {
	if ci == nil || ci.Validity <= 0 {
		return 72 * time.Hour
	}
	return ci.Validity
}

func signatureAlgorithm(alg Algorithm) (x509.SignatureAlgorithm, bool) {
	switch alg {
	case RS256:
		return x509.SHA256WithRSA, true
	case RS384:
		return x509.SHA384WithRSA, true
	case RS512:
		return x509.SHA512WithRSA, true
	}
	return x509.UnknownSignatureAlgorithm, false
}

// Issue firma el certificado y devuelve x5c (una sola entrada, DER en base64url)
// y x5t (SHA-1 del DER en base64url).
func (ci *CertificateIssuer) Issue(pub *rsa.PublicKey, priv crypto.Signer, alg Algorithm) ([]string, string, error) {
	sigAlg, ok := signatureAlgorithm(alg)
	if !ok {
		return nil, "", fmt.Errorf("%w: certificate for %s", ErrUnsupportedAlgorithm, alg)
	}
	if pub == nil || priv == nil {
		return nil, "", fmt.Errorf("%w: missing rsa key for certificate", ErrEncoding)
	}

	serial, err := rand.Int(ci.random(), new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, "", fmt.Errorf("%w: serial: %w", ErrGeneration, err)
	}

	now := ci.now()
	name := pkix.Name{CommonName: CertificateSubject}
	tpl := &x509.Certificate{
		SerialNumber:       serial,
		Subject:            name,
		Issuer:             name,
		NotBefore:          now,
		NotAfter:           now.Add(ci.validity()),
		SignatureAlgorithm: sigAlg,
	}

	der, err := x509.CreateCertificate(ci.random(), tpl, tpl, pub, priv)
	if err != nil {
		return nil, "", fmt.Errorf("%w: certificate: %w", ErrGeneration, err)
	}
	sum := sha1.Sum(der)
	return []string{b64(der)}, b64(sum[:]), nil
}
