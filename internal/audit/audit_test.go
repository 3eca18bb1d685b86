package audit

import (
	"context"
	"testing"

	"github.com/dropDatabas3/hellojwks/internal/observability/logger"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := logger.ToContext(context.Background(), zap.New(core))

	Log(ctx, EventKeyDeleted, logger.KeyID("abc"))

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "audit", entries[0].LoggerName)
	require.Equal(t, EventKeyDeleted, entries[0].Message)
	fields := entries[0].ContextMap()
	require.Equal(t, EventKeyDeleted, fields["event"])
	require.Equal(t, "abc", fields["key_id"])
}
