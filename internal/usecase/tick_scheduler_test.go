package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/riskibarqy/turf-war/internal/platform/logging"
)

type countingRunner struct {
	mu       sync.Mutex
	triggers []string
	fail     bool
	done     chan struct{}
}

func (r *countingRunner) RunTick(ctx context.Context, trigger string) (TickResult, error) {
	r.mu.Lock()
	r.triggers = append(r.triggers, trigger)
	n := len(r.triggers)
	r.mu.Unlock()
	if n == 2 {
		close(r.done)
	}
	if _, ok := ctx.Deadline(); !ok {
		return TickResult{}, errors.New("scheduled run without deadline")
	}
	if r.fail {
		return TickResult{}, errors.New("sweep failed")
	}
	return TickResult{}, nil
}

func TestTickScheduler_RunsUntilCancelled(t *testing.T) {
	for _, fail := range []bool{false, true} {
		runner := &countingRunner{fail: fail, done: make(chan struct{})}
		scheduler := &TickScheduler{runner: runner, interval: 5 * time.Millisecond, logger: logging.NewNop()}

		ctx, cancel := context.WithCancel(context.Background())
		stopped := make(chan struct{})
		go func() {
			scheduler.Run(ctx)
			close(stopped)
		}()

		select {
		case <-runner.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("scheduler did not tick twice (fail=%v)", fail)
		}
		cancel()
		select {
		case <-stopped:
		case <-time.After(2 * time.Second):
			t.Fatalf("scheduler did not stop after cancel")
		}

		runner.mu.Lock()
		for _, trigger := range runner.triggers {
			assert.Equal(t, TickTriggerScheduler, trigger)
		}
		runner.mu.Unlock()
	}
}
