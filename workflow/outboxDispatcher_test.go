package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestNextBackoff(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 5 * time.Second},
		{1, 5 * time.Second},
		{2, 10 * time.Second},
		{3, 20 * time.Second},
		{7, 320 * time.Second},
		{8, 10 * time.Minute},
		{30, 10 * time.Minute},
	}
	for _, tc := range cases {
		if got := nextBackoff(5*time.Second, tc.attempt); got != tc.want {
			t.Fatalf("nextBackoff(attempt=%d) = %s, want %s", tc.attempt, got, tc.want)
		}
	}
}

func TestNewOutboxDispatcherDefaults(t *testing.T) {
	d := NewOutboxDispatcher(nil, logrus.New())
	if d.DispatcherID == "" || d.Publish == nil {
		t.Fatalf("dispatcher not initialised: %+v", d)
	}
	if d.MaxAttempts != 20 || d.InitialBackoff != 5*time.Second || d.BatchSize != 50 {
		t.Fatalf("unexpected defaults: attempts=%d backoff=%s batch=%d", d.MaxAttempts, d.InitialBackoff, d.BatchSize)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	d := NewOutboxDispatcher(nil, logrus.New())
	d.PollInterval = time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}
