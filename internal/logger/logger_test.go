package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func TestSetupLevels(t *testing.T) {
	require.Equal(t, zerolog.InfoLevel, Setup(false).GetLevel())
	require.Equal(t, zerolog.DebugLevel, Setup(true).GetLevel())
}

func TestOperation(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf).Level(zerolog.DebugLevel)
	ctx := l.WithContext(context.Background())

	Operation(ctx, "members.create", "org-1")(nil)
	require.Contains(t, buf.String(), `"op":"members.create"`)
	require.Contains(t, buf.String(), `"org_id":"org-1"`)
	require.Contains(t, buf.String(), `"level":"debug"`)

	buf.Reset()
	Operation(ctx, "members.delete", "org-1")(errors.New("boom"))
	require.Contains(t, buf.String(), `"level":"warn"`)
	require.Contains(t, buf.String(), "boom")
}

func TestOperationWithoutContextLogger(t *testing.T) {
	var buf bytes.Buffer
	saved := log.Logger
	log.Logger = zerolog.New(&buf).Level(zerolog.DebugLevel)
	t.Cleanup(func() { log.Logger = saved })

	Operation(context.Background(), "members.save", "org-1")(errors.New("boom"))
	require.Contains(t, buf.String(), `"op":"members.save"`)
	require.Contains(t, buf.String(), `"level":"warn"`)
	require.Contains(t, buf.String(), "boom")
}
