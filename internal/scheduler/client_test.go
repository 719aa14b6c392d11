package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

type fakeSchedulerConfig struct {
	redisURL    string
	tlsInsecure bool
	queue       string
	concurrency int
	interval    time.Duration
}

func (c fakeSchedulerConfig) GetRedisURL() string             { return c.redisURL }
func (c fakeSchedulerConfig) GetRedisTLSInsecure() bool       { return c.tlsInsecure }
func (c fakeSchedulerConfig) GetAsynqQueueName() string       { return c.queue }
func (c fakeSchedulerConfig) GetAsynqConcurrency() int        { return c.concurrency }
func (c fakeSchedulerConfig) GetSweepInterval() time.Duration { return c.interval }

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(fakeSchedulerConfig{}); err == nil {
		t.Fatal("expected error without redis url")
	}
}

func TestEnqueueSweep(t *testing.T) {
	srv := miniredis.RunT(t)

	client, err := NewClient(fakeSchedulerConfig{
		redisURL: "redis://" + srv.Addr(),
		queue:    "sweeps",
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	if err := client.EnqueueSweep(context.Background()); err != nil {
		t.Fatalf("EnqueueSweep: %v", err)
	}

	// asynq stores pending tasks under asynq:{<queue>}:pending.
	if !srv.Exists("asynq:{sweeps}:pending") {
		t.Fatalf("no pending task in queue, keys: %v", srv.Keys())
	}
}

func TestTaskPayloadRoundTrip(t *testing.T) {
	requested := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	task, err := NewAssignmentsSweepTask(AssignmentsSweepPayload{RequestedAt: requested})
	if err != nil {
		t.Fatalf("NewAssignmentsSweepTask: %v", err)
	}
	if task.Type() != TaskAssignmentsSweep {
		t.Fatalf("task type = %s, want %s", task.Type(), TaskAssignmentsSweep)
	}

	payload, err := ParseAssignmentsSweepPayload(task)
	if err != nil {
		t.Fatalf("ParseAssignmentsSweepPayload: %v", err)
	}
	if !payload.RequestedAt.Equal(requested) {
		t.Fatalf("requested at = %v, want %v", payload.RequestedAt, requested)
	}
}

func TestRedisClientOptParsesURL(t *testing.T) {
	opt, err := redisClientOpt("redis://:secret@localhost:6380/2", false)
	if err != nil {
		t.Fatalf("redisClientOpt: %v", err)
	}
	if opt.Addr != "localhost:6380" || opt.Password != "secret" || opt.DB != 2 {
		t.Fatalf("unexpected opt %+v", opt)
	}
	if opt.TLSConfig != nil {
		t.Fatal("plain redis url should not carry tls config")
	}
}

func TestRedisClientOptInsecureTLS(t *testing.T) {
	opt, err := redisClientOpt("rediss://localhost:6380", true)
	if err != nil {
		t.Fatalf("redisClientOpt: %v", err)
	}
	if opt.TLSConfig == nil || !opt.TLSConfig.InsecureSkipVerify {
		t.Fatal("expected insecure tls config for rediss url")
	}
}
