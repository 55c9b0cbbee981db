package runner

import (
	"io"
	"sync"
	"time"
)

// idleWatch fires a cancellation callback when no child output arrives for
// the configured duration. Writers wrapped via Wrap reset the timer on
// every write with n > 0.
type idleWatch struct {
	timer   *time.Timer
	timeout time.Duration
	cancel  func()
	idled   bool
	mu      sync.Mutex
}

// newIdleWatch creates a watch that cancels via cancel after timeout of
// child silence. Pass 0 to disable idle detection.
func newIdleWatch(timeout time.Duration, cancel func()) *idleWatch {
	if timeout <= 0 {
		return &idleWatch{timeout: 0}
	}
	iw := &idleWatch{timeout: timeout, cancel: cancel}
	iw.timer = time.AfterFunc(timeout, iw.onTimeout)
	return iw
}

// Wrap returns a writer that resets the idle timer on activity. When the
// watch is disabled it returns w unchanged.
func (iw *idleWatch) Wrap(w io.Writer) io.Writer {
	if iw.timer == nil {
		return w
	}
	return &idleResetWriter{iw: iw, w: w}
}

func (iw *idleWatch) onTimeout() {
	iw.mu.Lock()
	iw.idled = true
	iw.mu.Unlock()
	if iw.cancel != nil {
		iw.cancel()
	}
}

// Idled returns true if the idle timeout fired.
func (iw *idleWatch) Idled() bool {
	iw.mu.Lock()
	defer iw.mu.Unlock()
	return iw.idled
}

// Stop stops the idle timer. Call in defer once the child has exited.
func (iw *idleWatch) Stop() {
	if iw.timer != nil {
		iw.timer.Stop()
	}
}

type idleResetWriter struct {
	iw *idleWatch
	w  io.Writer
}

func (irw *idleResetWriter) Write(p []byte) (int, error) {
	n, err := irw.w.Write(p)
	if n > 0 {
		irw.iw.timer.Reset(irw.iw.timeout)
	}
	return n, err
}
