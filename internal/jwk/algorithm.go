// Package jwk genera material de clave asimétrica y lo codifica como JSON Web Key.
//
// El flujo es siempre el mismo:
//
//	Generator.Generate(alg)  -> *KeyMaterial  (clave privada ya normalizada a PKCS#8)
//	Encoder.Encode(m, alg)   -> *Fields       (campos JOSE en base64url sin padding)
//	CertificateIssuer.Issue  -> x5c, x5t      (solo familia RSA)
//
// Builder encadena los tres pasos. Ningún paso guarda estado entre llamadas:
// cada generación usa aleatoriedad nueva y es independiente de las demás.
package jwk

import (
	"crypto"
	"fmt"
)

// Algorithm es el conjunto cerrado de algoritmos soportados.
// El valor cero no es un algoritmo válido.
type Algorithm int

const (
	RS256 Algorithm = iota + 1
	RS384
	RS512
	ES256
	ES384
	ES512
	Ed25519
	Ed448
)

// Family agrupa algoritmos que comparten generación y codificación.
type Family int

const (
	FamilyRSA Family = iota + 1
	FamilyEC
	FamilyEdDSA
)

// Valores de kty (RFC 7517 / RFC 8037).
const (
	KeyTypeRSA = "RSA"
	KeyTypeEC  = "EC"
	KeyTypeOKP = "OKP"
)

// JWAEdDSA es el valor "alg" que publican las claves Edwards, sin importar la curva.
const JWAEdDSA = "EdDSA"

var algorithmNames = map[Algorithm]string{
	RS256:   "RS256",
	RS384:   "RS384",
	RS512:   "RS512",
	ES256:   "ES256",
	ES384:   "ES384",
	ES512:   "ES512",
	Ed25519: "Ed25519",
	Ed448:   "Ed448",
}

// Algorithms devuelve todos los algoritmos soportados en orden estable.
func Algorithms() []Algorithm {
	return []Algorithm{RS256, RS384, RS512, ES256, ES384, ES512, Ed25519, Ed448}
}

// ParseAlgorithm convierte el identificador del request al algoritmo.
// La comparación es exacta: "rs256" no es RS256.
func ParseAlgorithm(s string) (Algorithm, error) {
	for _, a := range Algorithms() {
		if algorithmNames[a] == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, s)
}

func (a Algorithm) String() string {
	if n, ok := algorithmNames[a]; ok {
		return n
	}
	return fmt.Sprintf("Algorithm(%d)", int(a))
}

// Valid indica si a pertenece al conjunto cerrado.
func (a Algorithm) Valid() bool { return a.Family() != 0 }

// Family devuelve la familia del algoritmo o 0 si no es válido.
func (a Algorithm) Family() Family {
	switch a {
	case RS256, RS384, RS512:
		return FamilyRSA
	case ES256, ES384, ES512:
		return FamilyEC
	case Ed25519, Ed448:
		return FamilyEdDSA
	}
	return 0
}

// KeyType devuelve el kty JOSE determinado por el algoritmo.
func (a Algorithm) KeyType() string {
	switch a.Family() {
	case FamilyRSA:
		return KeyTypeRSA
	case FamilyEC:
		return KeyTypeEC
	case FamilyEdDSA:
		return KeyTypeOKP
	}
	return ""
}

// JWA devuelve el valor "alg" que se publica en el JWK.
// Las curvas Edwards se publican como "EdDSA" y la curva va en "crv".
func (a Algorithm) JWA() string {
	if a.Family() == FamilyEdDSA {
		return JWAEdDSA
	}
	return a.String()
}

// Curve devuelve el nombre de curva JOSE ("crv"), vacío para RSA.
func (a Algorithm) Curve() string {
	switch a {
	case ES256:
		return "P-256"
	case ES384:
		return "P-384"
	case ES512:
		return "P-521"
	case Ed25519:
		return "Ed25519"
	case Ed448:
		return "Ed448"
	}
	return ""
}

// Hash devuelve el digest asociado a RSA y EC. EdDSA firma el mensaje sin prehash.
func (a Algorithm) Hash() crypto.Hash {
	switch a {
	case RS256, ES256:
		return crypto.SHA256
	case RS384, ES384:
		return crypto.SHA384
	case RS512, ES512:
		return crypto.SHA512
	}
	return 0
}

// coordinateSize es el tamaño en bytes de cada coordenada afín (x, y)
// o de la clave pública cruda en EdDSA.
func (a Algorithm) coordinateSize() int {
	switch a {
	case ES256:
		return 32
	case ES384:
		return 48
	case ES512:
		return 66
	case Ed25519:
		return 32
	case Ed448:
		return 57
	}
	return 0
}
