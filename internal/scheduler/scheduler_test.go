package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Guliveer/vitalis/monitor/internal/models"
)

type fakeQuerier struct {
	mu    sync.Mutex
	calls int
	fail  map[string]error
}

func (f *fakeQuerier) Query(ctx context.Context, q models.Query) (models.Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if err := f.fail[q.Purpose]; err != nil {
		return models.Result{}, err
	}
	return models.Result{Module: q.Module, Purpose: q.Purpose, Value: " 1.0"}, nil
}

func TestStart_RunsRequestedRounds(t *testing.T) {
	fq := &fakeQuerier{}
	s := New(fq, Options{
		Queries: []models.Query{
			{Module: "NET", Purpose: "ESTAT", Field: "--fields=errs"},
			{Module: "NET", Purpose: "STAT", Field: "--fields=util"},
		},
		Interval: time.Millisecond,
		Samples:  3,
	}, nil)

	var samples []models.Sample
	s.OnSample(func(sm models.Sample) { samples = append(samples, sm) })

	if n := s.Start(context.Background()); n != 3 {
		t.Fatalf("Start() = %d rounds, want 3", n)
	}
	if len(samples) != 3 {
		t.Fatalf("got %d samples, want 3", len(samples))
	}
	for i, sm := range samples {
		if sm.Round != i+1 {
			t.Errorf("sample %d has round %d", i, sm.Round)
		}
		if len(sm.Results) != 2 || len(sm.Errors) != 0 {
			t.Fatalf("sample %d = %+v", i, sm)
		}
		if sm.Results[0].Purpose != "ESTAT" || sm.Results[1].Purpose != "STAT" {
			t.Errorf("results out of query order: %+v", sm.Results)
		}
	}
	if fq.calls != 6 {
		t.Errorf("querier called %d times, want 6", fq.calls)
	}
}

func TestStart_RecordsErrors(t *testing.T) {
	fq := &fakeQuerier{fail: map[string]error{"STAT": errors.New("sampling tool failed")}}
	s := New(fq, Options{
		Queries: []models.Query{
			{Module: "NET", Purpose: "ESTAT"},
			{Module: "NET", Purpose: "STAT"},
		},
		Interval: time.Millisecond,
		Samples:  1,
	}, nil)

	var got models.Sample
	s.OnSample(func(sm models.Sample) { got = sm })
	s.Start(context.Background())

	if len(got.Results) != 1 || got.Results[0].Purpose != "ESTAT" {
		t.Errorf("Results = %+v", got.Results)
	}
	if len(got.Errors) != 1 || got.Errors[0].Purpose != "STAT" || got.Errors[0].Error != "sampling tool failed" {
		t.Errorf("Errors = %+v", got.Errors)
	}
}

func TestStart_StopsOnCancel(t *testing.T) {
	fq := &fakeQuerier{}
	s := New(fq, Options{
		Queries:  []models.Query{{Module: "NET", Purpose: "ESTAT"}},
		Interval: time.Hour,
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	s.OnSample(func(models.Sample) { cancel() })

	done := make(chan int)
	go func() { done <- s.Start(ctx) }()

	select {
	case n := <-done:
		if n != 1 {
			t.Errorf("Start() = %d rounds, want 1", n)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestStart_CancelledBeforeFirstRound(t *testing.T) {
	fq := &fakeQuerier{}
	s := New(fq, Options{
		Queries:  []models.Query{{Module: "NET", Purpose: "ESTAT"}},
		Interval: time.Millisecond,
		Samples:  5,
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if n := s.Start(ctx); n != 0 {
		t.Errorf("Start() = %d rounds, want 0", n)
	}
	if fq.calls != 0 {
		t.Errorf("querier called %d times, want 0", fq.calls)
	}
}
