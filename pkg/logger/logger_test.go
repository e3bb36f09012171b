package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCtx_FallsBackToGlobal(t *testing.T) {
	assert.Same(t, &globalLogger, Ctx(context.Background()))
	//nolint:staticcheck // nil context is accepted on purpose
	assert.Same(t, &globalLogger, Ctx(nil))
}

func TestWith_AttachesFields(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)
	ctx := WithLogger(context.Background(), &base)

	ctx, l := With(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Str("run_id", "abc")
	})
	require.Same(t, l, Ctx(ctx))

	Ctx(ctx).Info().Msg("hello")
	assert.Contains(t, buf.String(), `"run_id":"abc"`)
	assert.Contains(t, buf.String(), `"message":"hello"`)
}
