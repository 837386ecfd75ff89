package bridge

import (
	"context"
)

// RunWithContextCancel runs fn, which doesn't accept a context. When ctx is
// canceled first, onCancel is called to unblock fn and context.Canceled is
// returned right away. fn may still be running at that point; readers that
// Close cannot interrupt (a blocking tty, a plain io.Reader) would otherwise
// hold the caller forever.
func RunWithContextCancel(ctx context.Context, onCancel func(), fn func() error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- fn()
	}()
	select {
	case <-ctx.Done():
		if onCancel != nil {
			onCancel()
		}
		return context.Canceled
	case err := <-errCh:
		return err
	}
}
