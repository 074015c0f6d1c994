package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	logx "pronote2telegram/pkg/logx"
)

func TestRunnerRunsUntilCancelled(t *testing.T) {
	var runs atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())

	spec, err := ParseSchedule("@every 1s")
	if err != nil {
		t.Fatal(err)
	}
	r := New(Config{Spec: spec, Immediate: true}, func(context.Context) error {
		if runs.Add(1) >= 2 {
			cancel()
		}
		return errors.New("failures are logged only")
	}, logx.Nop())

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(10 * time.Second):
		cancel()
		t.Fatal("runner did not stop")
	}
	if n := runs.Load(); n < 2 {
		t.Fatalf("runs = %d, want >= 2", n)
	}
}
