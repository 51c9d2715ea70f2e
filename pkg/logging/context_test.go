package logging_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clinicworks/visitlink/pkg/logging"
)

func TestContextFunctions(t *testing.T) {
	t.Run("WithLogger round-trips through FromContext", func(t *testing.T) {
		tl := logging.NewTestLogger(t)
		ctx := logging.WithLogger(context.Background(), tl.Logger)

		logging.FromContext(ctx).Info().Msg("carried")
		assert.True(t, tl.Contains("carried"))
	})

	t.Run("FromContext falls back to the default logger", func(t *testing.T) {
		var missing context.Context
		assert.NotNil(t, logging.FromContext(context.Background()))
		assert.NotNil(t, logging.FromContext(missing))
	})

	t.Run("Ctx is an alias for FromContext", func(t *testing.T) {
		tl := logging.NewTestLogger(t)
		ctx := logging.WithLogger(context.Background(), tl.Logger)
		assert.Same(t, logging.FromContext(ctx), logging.Ctx(ctx))
	})

	t.Run("WithRunID stores the run ID and tags the logger", func(t *testing.T) {
		tl := logging.NewTestLogger(t)
		ctx := logging.WithLogger(context.Background(), tl.Logger)
		ctx = logging.WithRunID(ctx, "20250923T120000")

		assert.Equal(t, "20250923T120000", logging.RunID(ctx))

		logging.Ctx(ctx).Info().Msg("batch line")
		assert.True(t, tl.Contains(`"run_id":"20250923T120000"`))
	})

	t.Run("RunID is empty when never set", func(t *testing.T) {
		var missing context.Context
		assert.Empty(t, logging.RunID(context.Background()))
		assert.Empty(t, logging.RunID(missing))
	})

	t.Run("WithField adds a field to the context logger", func(t *testing.T) {
		tl := logging.NewTestLogger(t)
		ctx := logging.WithLogger(context.Background(), tl.Logger)
		ctx = logging.WithField(ctx, "export", "amd.csv")

		logging.Ctx(ctx).Info().Msg("tagged")
		assert.True(t, tl.Contains(`"export":"amd.csv"`))
	})
}
