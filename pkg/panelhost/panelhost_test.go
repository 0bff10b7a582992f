package panelhost

import (
	"context"
	"testing"
	"time"

	"github.com/slatebar/slatebar/pkg/bar"
	"github.com/slatebar/slatebar/pkg/retry"
)

func TestRunStopsOnCancellation(t *testing.T) {
	h := &Host{
		Command:        "slatebar-panel-does-not-exist",
		Socket:         "/tmp/nowhere.sock",
		RestartTimeout: time.Hour,
		Reload:         retry.NewSignal(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Run(ctx, bar.MonitorInfo{Name: "DP-1", Width: 1920, Height: 1080})
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop on cancellation")
	}
}
