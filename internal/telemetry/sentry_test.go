package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_EmptyDSNIsNoOp(t *testing.T) {
	shutdown, err := Init(Config{})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	shutdown()
}

// The tracing helpers run on every pipeline invocation, also when the process
// was started without a Sentry DSN. They must be safe to call uninitialized.
func TestSpanHelpers_SafeWithoutInit(t *testing.T) {
	ctx := context.Background()

	ctx, span := StartSpan(ctx, "pipeline.run", SpanAttributes{
		ProjectID:   "default",
		RagConfigID: "cfg-1",
		Operation:   "run_index",
	})
	require.NotNil(t, span)
	assert.NotNil(t, ctx)

	childCtx, child := StartSpan(ctx, "pipeline.stage", SpanAttributes{DocumentID: "doc-1"})
	require.NotNil(t, child)
	assert.NotNil(t, childCtx)

	child.SetError(errors.New("stage failed"))
	child.End()
	span.End()
}

func TestTransactionHelpers_SafeWithoutInit(t *testing.T) {
	ctx, tx := StartTransaction(context.Background(), "reindex.tick", "worker.reindex")
	require.NotNil(t, tx)

	AddBreadcrumb(ctx, "worker", "reindex tick for project default")
	CaptureError(ctx, errors.New("tick failed"))

	tx.SetError(errors.New("tick failed"))
	tx.End()
}

func TestSpan_NilInnerIsSafe(t *testing.T) {
	var s Span
	s.SetError(errors.New("ignored"))
	s.End()
	assert.NotNil(t, s.Context())
}
