package logger

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	initOnce sync.Once
	current  atomic.Pointer[zap.Logger]
)

// Init construye el logger global. Solo la primera llamada tiene efecto;
// los CLIs y el servicio la invocan antes de armar el Container.
func Init(cfg Config) {
	initOnce.Do(func() {
		current.Store(build(cfg))
	})
}

// L retorna el logger global. Sin Init previo usa dev/info.
func L() *zap.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	Init(Config{Env: "dev", Level: "info"})
	return current.Load()
}

// Replace cambia el logger global y devuelve cómo restaurar el anterior.
// Pensado para tests que capturan logs con zaptest/observer.
func Replace(l *zap.Logger) (restore func()) {
	prev := L()
	current.Store(l)
	return func() { current.Store(prev) }
}

// Sync flushea buffers pendientes. Llamar con defer en main.
func Sync() error {
	if l := current.Load(); l != nil {
		return l.Sync()
	}
	return nil
}
