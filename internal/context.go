package internal

import (
	"context"
	"time"
)

type ctxKey string

const ContextWorkspaceKey ctxKey = "workspaceID"

func WorkspaceIDFromContext(ctx context.Context) int64 {
	if ctx == nil {
		return 0
	}
	if workspaceID, ok := ctx.Value(ContextWorkspaceKey).(int64); ok {
		return workspaceID
	}
	return 0
}

func ContextWithWorkspaceID(ctx context.Context, workspaceID int64) context.Context {
	return context.WithValue(ctx, ContextWorkspaceKey, workspaceID)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
