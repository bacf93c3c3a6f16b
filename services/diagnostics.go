package services

import (
	"fmt"
	"io"
	"sync"

	"github.com/novonordisk-research/vcf-parser/models"
)

// DiagnosticLogger writes the first `limit` diagnostics to w and counts
// the rest. A limit <= 0 means unlimited.
type DiagnosticLogger struct {
	mu         sync.Mutex
	w          io.Writer
	limit      int
	written    int
	suppressed int
}

func NewDiagnosticLogger(w io.Writer, limit int) *DiagnosticLogger {
	return &DiagnosticLogger{w: w, limit: limit}
}

func (l *DiagnosticLogger) Report(d models.Diagnostic) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.limit > 0 && l.written >= l.limit {
		l.suppressed++
		return
	}
	l.written++
	fmt.Fprintf(l.w, "WARNING: %s\n", d)
}

// Summary describes suppressed diagnostics, or "" when none were.
func (l *DiagnosticLogger) Summary() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.suppressed == 0 {
		return ""
	}
	return fmt.Sprintf("%d further diagnostics suppressed", l.suppressed)
}
