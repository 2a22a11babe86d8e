package broadcast

import "context"

// CancellationToken is a shared, monotonic abort signal. Once cancelled it stays cancelled.
type CancellationToken struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func NewCancellationToken() *CancellationToken {
	ctx, cancel := context.WithCancel(context.Background())
	return &CancellationToken{ctx: ctx, cancel: cancel}
}

// Cancel trips the token. Calling it more than once is a no-op.
func (t *CancellationToken) Cancel() {
	t.cancel()
}

// Done returns a channel that is closed once the token is cancelled.
func (t *CancellationToken) Done() <-chan struct{} {
	return t.ctx.Done()
}

func (t *CancellationToken) IsCancelled() bool {
	return t.ctx.Err() != nil
}

// Context returns a context that is done once the token is cancelled.
func (t *CancellationToken) Context() context.Context {
	return t.ctx
}
