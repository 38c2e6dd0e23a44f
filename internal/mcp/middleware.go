package mcp

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/typepaste/internal/mcp/tools"
)

// LoggingMiddleware returns middleware that logs every incoming method call
// with its duration. Tool calls also log the tool name, and failed calls
// the error code when one is known. Each call gets a call_id so the start
// and end of slow calls can be matched.
func LoggingMiddleware() sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			start := time.Now()
			callID := uuid.NewString()
			slog.LogAttrs(ctx, slog.LevelDebug, "method call started",
				slog.String("call_id", callID),
				slog.String("method", method),
			)

			result, err := next(ctx, method, req)

			attrs := []slog.Attr{
				slog.String("call_id", callID),
				slog.String("method", method),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			}
			if call, ok := req.(*sdkmcp.CallToolRequest); ok && call.Params != nil {
				attrs = append(attrs, slog.String("tool", call.Params.Name))
			}

			if err != nil {
				var coded *tools.CodedError
				if errors.As(err, &coded) {
					attrs = append(attrs, slog.String("code", coded.Code))
				}
				attrs = append(attrs, slog.String("error", err.Error()))
				slog.LogAttrs(ctx, slog.LevelError, "method call failed", attrs...)
			} else {
				slog.LogAttrs(ctx, slog.LevelInfo, "method call completed", attrs...)
			}

			return result, err
		}
	}
}
