// Package perf is an opt-in timing log for the hot paths (bar rebuilds,
// panel redraws). Set SLATEBAR_PERF=1 to enable it.
package perf

import (
	"fmt"
	"os"
	"sync"
	"time"
)

var (
	enabled  = os.Getenv("SLATEBAR_PERF") == "1"
	logFile  *os.File
	logMutex sync.Mutex
)

func init() {
	if enabled {
		var err error
		logFile, err = os.OpenFile("/tmp/slatebar-perf.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			enabled = false
		}
	}
}

// Timer tracks elapsed time for a named operation.
type Timer struct {
	name  string
	start time.Time
}

// Start begins timing an operation.
func Start(name string) *Timer {
	return &Timer{name: name, start: time.Now()}
}

// Stop ends timing and logs the result.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	if enabled && logFile != nil {
		logMutex.Lock()
		fmt.Fprintf(logFile, "%s: %s: %v\n", time.Now().Format("15:04:05.000"), t.name, elapsed)
		logMutex.Unlock()
	}
	return elapsed
}

// Enabled reports whether timing is being logged.
func Enabled() bool {
	return enabled
}
