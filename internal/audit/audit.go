// Package audit registra eventos de auditoría del ciclo de vida de claves.
// Sale por el logger "audit" con el campo event; nunca incluye material privado.
package audit

import (
	"context"

	"github.com/dropDatabas3/hellojwks/internal/observability/logger"
	"go.uber.org/zap"
)

// Eventos auditados.
const (
	EventKeyCreated     = "key.created"
	EventKeyDeleted     = "key.deleted"
	EventPrivateKeyRead = "key.private_read"
)

// Log writes a structured audit event using the request-scoped logger when present.
func Log(ctx context.Context, event string, fields ...zap.Field) {
	logger.From(ctx).Named("audit").Info(event,
		append([]zap.Field{logger.String("event", event)}, fields...)...,
	)
}
