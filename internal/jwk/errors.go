package jwk

import "errors"

var (
	// ErrUnsupportedAlgorithm: el identificador no pertenece al conjunto cerrado.
	// Es corregible por el cliente.
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

	// ErrGeneration: falló la fuente de entropía o el motor criptográfico.
	// Fatal para el request, nunca se reintenta.
	ErrGeneration = errors.New("key generation failed")

	// ErrEncoding: material de clave malformado. Indica un bug del Generator.
	ErrEncoding = errors.New("key encoding failed")
)
