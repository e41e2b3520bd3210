package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// withRequestID stores the caller's correlation id, or a fresh one.
func withRequestID(ctx context.Context, id string) (context.Context, string) {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, requestIDKey, id), id
}

// RequestID returns the correlation id of the operation running in ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// LoggingMiddleware logs every operation with its outcome and duration.
// Expected failures log at INFO; storage failures at ERROR.
func LoggingMiddleware(log zerolog.Logger) Middleware {
	return func(op string, next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, params json.RawMessage) (any, error) {
			start := time.Now()
			data, err := next(ctx, params)

			var ev *zerolog.Event
			switch code := errorCode(err); {
			case err == nil:
				ev = log.Debug()
			case code == CodeStorage:
				ev = log.Error().Err(err).Str("code", code)
			default:
				ev = log.Info().Err(err).Str("code", code)
			}
			ev.Str("op", op).
				Str("request_id", RequestID(ctx)).
				Bool("success", err == nil).
				Dur("duration", time.Since(start).Round(time.Microsecond)).
				Msg("operation")
			return data, err
		}
	}
}
