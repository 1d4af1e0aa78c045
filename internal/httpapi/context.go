package httpapi

import (
	"context"
)

// serverBaseCtx is a process-level context canceled on shutdown. Long-lived
// websocket sessions watch it so a graceful stop closes every subscriber.
// Defaults to Background if not set.
var serverBaseCtx = context.Background()

// SetBaseContext sets the process-level base context used by handlers.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		serverBaseCtx = context.Background()
		return
	}
	serverBaseCtx = ctx
}

// joinContexts returns a context that is canceled when either a or b is done.
// Websocket sessions join the server base context with the request context so
// they end on shutdown as well as on client disconnect. The returned cancel
// func must be called when the session ends to release the goroutine.
func joinContexts(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-a.Done():
			cancel()
		case <-b.Done():
			cancel()
		}
	}()
	return ctx, cancel
}
