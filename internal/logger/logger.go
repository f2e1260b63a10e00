package logger

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup builds the process logger: JSON on stderr, or a console writer at debug
// level when dev is set.
func Setup(dev bool) zerolog.Logger {
	var logger zerolog.Logger
	level := zerolog.InfoLevel
	if dev {
		level = zerolog.DebugLevel
	}

	logger = zerolog.New(os.Stderr).Level(level).With().Timestamp().Caller().Logger()

	if dev {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.RFC3339)
		}}).Level(level).With().Stack().Logger()
	}

	return logger
}

// Operation logs the outcome of one backend call. Call the returned func with
// the call's error when it finishes. The logger attached to ctx is used when
// there is one, the global logger otherwise.
//
//	done := logger.Operation(ctx, "members.create", orgID.String())
//	err := ...
//	done(err)
func Operation(ctx context.Context, name, orgID string) func(error) {
	started := time.Now()
	base := zerolog.Ctx(ctx)
	if base.GetLevel() == zerolog.Disabled {
		base = &log.Logger
	}
	l := base.With().Str("op", name).Str("org_id", orgID).Logger()

	return func(err error) {
		if err != nil {
			l.Warn().Err(err).Dur("duration", time.Since(started)).Msg("operation failed")
			return
		}
		l.Debug().Dur("duration", time.Since(started)).Msg("operation")
	}
}
