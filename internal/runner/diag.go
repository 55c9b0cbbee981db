package runner

import (
	"io"
	"strings"
	"sync"
)

// diagPattern maps a stderr pattern to a short failure hint.
type diagPattern struct {
	pattern string
	hint    string
}

var diagPatterns = []diagPattern{
	{"traceback (most recent call last)", "python exception"},
	{"segmentation fault", "segmentation fault"},
	{"mpi_abort", "MPI abort"},
	{"bad termination", "abnormal MPI termination"},
	{"out of memory", "out of memory"},
}

// diagWriter wraps the stderr sink and scans for known failure signatures.
// All data passes through unchanged. The hint only annotates a failure
// message; the exit code alone decides whether an example failed.
type diagWriter struct {
	w        io.Writer
	detected bool
	hint     string
	mu       sync.Mutex
}

func newDiagWriter(w io.Writer) *diagWriter {
	return &diagWriter{w: w}
}

func (dw *diagWriter) Write(p []byte) (int, error) {
	n, err := dw.w.Write(p)

	dw.mu.Lock()
	if !dw.detected {
		lower := strings.ToLower(string(p))
		for _, dp := range diagPatterns {
			if strings.Contains(lower, dp.pattern) {
				dw.detected = true
				dw.hint = dp.hint
				break
			}
		}
	}
	dw.mu.Unlock()

	return n, err
}

// Detected returns true if a failure signature was seen on stderr.
func (dw *diagWriter) Detected() bool {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	return dw.detected
}

// Reason returns the hint for the first signature seen.
func (dw *diagWriter) Reason() string {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	return dw.hint
}
