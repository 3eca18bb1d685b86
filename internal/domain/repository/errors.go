package repository

import "errors"

var (
	// ErrNotFound indica que el registro no existe o no es visible.
	ErrNotFound = errors.New("not found")

	// ErrPrivateKeyGone indica que el registro es visible pero su clave privada ya expiró.
	ErrPrivateKeyGone = errors.New("private key expired")

	// ErrConflict indica un registro duplicado (mismo id o kid).
	ErrConflict = errors.New("conflict")

	// ErrStore envuelve cualquier fallo del almacenamiento subyacente.
	ErrStore = errors.New("store failure")

	// ErrNoDatabase indica que no hay base de datos configurada.
	ErrNoDatabase = errors.New("no database configured")
)

// IsNotFound verifica si el error es ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsPrivateKeyGone verifica si el error es ErrPrivateKeyGone.
func IsPrivateKeyGone(err error) bool {
	return errors.Is(err, ErrPrivateKeyGone)
}
