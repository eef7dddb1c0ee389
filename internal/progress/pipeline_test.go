package progress

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// fakeStore records writes and fails the first failN calls.
type fakeStore struct {
	mu     sync.Mutex
	writes []Write
	failN  int
	calls  int
	delay  time.Duration
}

func (s *fakeStore) SaveProgress(ctx context.Context, w Write) error {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failN {
		return errors.New("simulated write failure")
	}
	s.writes = append(s.writes, w)
	return nil
}

func (s *fakeStore) recorded() []Write {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Write, len(s.writes))
	copy(out, s.writes)
	return out
}

func (s *fakeStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func fastOpts(extra ...Option) []Option {
	opts := []Option{
		WithDebounce(10 * time.Millisecond),
		WithRetryDelay(func(attempt int) time.Duration { return time.Millisecond }),
	}
	return append(opts, extra...)
}

func TestPipeline_DebounceCoalesces(t *testing.T) {
	store := &fakeStore{}
	p := NewPipeline(store, uuid.New(), uuid.New(), fastOpts()...)
	ctx := context.Background()

	if err := p.Save(ctx, 12, 30, false); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := p.Save(ctx, 14, 35, false); err != nil {
		t.Fatalf("save: %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	writes := store.recorded()
	if len(writes) != 1 {
		t.Fatalf("issued %d writes, want exactly 1", len(writes))
	}
	if writes[0].ProgressPercent != 14 {
		t.Errorf("write carried %.0f%%, want the final value 14", writes[0].ProgressPercent)
	}
}

func TestPipeline_ChangeGateDropsSmallMovement(t *testing.T) {
	store := &fakeStore{}
	p := NewPipeline(store, uuid.New(), uuid.New(), fastOpts()...)
	ctx := context.Background()

	if err := p.Save(ctx, 20, 10, true); err != nil {
		t.Fatalf("immediate save: %v", err)
	}

	// Within 5 points of the watermark: dropped without scheduling.
	p.Save(ctx, 22, 12, false)
	p.Save(ctx, 18, 14, false)
	time.Sleep(50 * time.Millisecond)

	if got := store.callCount(); got != 1 {
		t.Errorf("store called %d times, want 1 (gated saves dropped)", got)
	}

	// A movement at the gate goes through.
	p.Save(ctx, 25, 16, false)
	time.Sleep(50 * time.Millisecond)
	if got := store.callCount(); got != 2 {
		t.Errorf("store called %d times, want 2", got)
	}
}

func TestPipeline_ImmediateBypassesGateAndDebounce(t *testing.T) {
	store := &fakeStore{}
	p := NewPipeline(store, uuid.New(), uuid.New(), fastOpts()...)
	ctx := context.Background()

	if err := p.Save(ctx, 3, 5, true); err != nil {
		t.Fatalf("immediate save: %v", err)
	}
	if got := store.callCount(); got != 1 {
		t.Fatalf("immediate save did not write synchronously (calls = %d)", got)
	}

	// Tiny movement, but immediate still writes.
	if err := p.Save(ctx, 4, 6, true); err != nil {
		t.Fatalf("immediate save: %v", err)
	}
	if got := store.callCount(); got != 2 {
		t.Errorf("second immediate save skipped (calls = %d)", got)
	}
}

func TestPipeline_RetriesThenSucceeds(t *testing.T) {
	store := &fakeStore{failN: 3}
	var savedCalls int
	var mu sync.Mutex
	p := NewPipeline(store, uuid.New(), uuid.New(), fastOpts(
		WithSavedFunc(func(float64, time.Time) {
			mu.Lock()
			savedCalls++
			mu.Unlock()
		}),
	)...)

	if err := p.Save(context.Background(), 50, 60, true); err != nil {
		t.Fatalf("save should succeed on the fourth attempt: %v", err)
	}

	if got := store.callCount(); got != 4 {
		t.Errorf("store called %d times, want 4 (1 try + 3 retries)", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if savedCalls != 1 {
		t.Errorf("success callback fired %d times, want 1", savedCalls)
	}
}

func TestPipeline_ExhaustedRetriesSurfaceOneError(t *testing.T) {
	store := &fakeStore{failN: 10}
	var errCalls int
	var mu sync.Mutex
	p := NewPipeline(store, uuid.New(), uuid.New(), fastOpts(
		WithErrorFunc(func(error) {
			mu.Lock()
			errCalls++
			mu.Unlock()
		}),
	)...)

	if err := p.Save(context.Background(), 50, 60, true); err == nil {
		t.Fatal("expected an error after exhausting retries")
	}

	if got := store.callCount(); got != 4 {
		t.Errorf("store called %d times, want 4", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if errCalls != 1 {
		t.Errorf("error surfaced %d times, want exactly 1", errCalls)
	}

	// Local state untouched: the watermark still reflects no successful save.
	if progress, _ := p.LastSaved(); progress != 0 {
		t.Errorf("failed save moved the watermark to %.0f", progress)
	}
}

func TestPipeline_StudySecondsSentAsDeltas(t *testing.T) {
	store := &fakeStore{}
	p := NewPipeline(store, uuid.New(), uuid.New(), fastOpts()...)
	ctx := context.Background()

	if err := p.Save(ctx, 10, 120, true); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := p.Save(ctx, 40, 300, true); err != nil {
		t.Fatalf("save: %v", err)
	}

	writes := store.recorded()
	if len(writes) != 2 {
		t.Fatalf("recorded %d writes, want 2", len(writes))
	}
	if writes[0].StudySecondsDelta != 120 {
		t.Errorf("first delta = %d, want 120", writes[0].StudySecondsDelta)
	}
	if writes[1].StudySecondsDelta != 180 {
		t.Errorf("second delta = %d, want 180 (300 - 120)", writes[1].StudySecondsDelta)
	}
	if writes[0].AttemptID == writes[1].AttemptID {
		t.Error("attempt IDs must be unique per write")
	}
	if p.UnsavedSeconds() != 0 {
		t.Errorf("unsaved seconds = %d after full flush, want 0", p.UnsavedSeconds())
	}
}

func TestPipeline_FailedDeltaCarriesOver(t *testing.T) {
	store := &fakeStore{failN: 4} // first write exhausts all tries
	p := NewPipeline(store, uuid.New(), uuid.New(), fastOpts()...)
	ctx := context.Background()

	if err := p.Save(ctx, 10, 100, true); err == nil {
		t.Fatal("expected first save to fail")
	}
	if p.UnsavedSeconds() != 100 {
		t.Errorf("unsaved seconds = %d after failure, want 100", p.UnsavedSeconds())
	}

	if err := p.Save(ctx, 20, 150, true); err != nil {
		t.Fatalf("second save: %v", err)
	}

	writes := store.recorded()
	if len(writes) != 1 {
		t.Fatalf("recorded %d successful writes, want 1", len(writes))
	}
	if writes[0].StudySecondsDelta != 150 {
		t.Errorf("recovery delta = %d, want the full 150 unconfirmed seconds", writes[0].StudySecondsDelta)
	}
}

func TestPipeline_ImmediateQueuesBehindInFlight(t *testing.T) {
	store := &fakeStore{delay: 30 * time.Millisecond}
	p := NewPipeline(store, uuid.New(), uuid.New(), fastOpts()...)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		p.Save(ctx, 10, 5, true)
	}()
	time.Sleep(5 * time.Millisecond)
	go func() {
		defer wg.Done()
		p.Save(ctx, 30, 8, true)
	}()
	wg.Wait()

	writes := store.recorded()
	if len(writes) != 2 {
		t.Fatalf("recorded %d writes, want 2", len(writes))
	}
	// Ordering preserved: the second write settles after the first.
	if writes[1].ProgressPercent != 30 {
		t.Errorf("final write carried %.0f%%, want 30", writes[1].ProgressPercent)
	}
}

func TestPipeline_FlushCancelsPendingDebounce(t *testing.T) {
	store := &fakeStore{}
	p := NewPipeline(store, uuid.New(), uuid.New(),
		WithDebounce(time.Hour), // would never fire on its own
		WithRetryDelay(func(int) time.Duration { return time.Millisecond }),
	)
	ctx := context.Background()

	p.Save(ctx, 42, 90, false)
	if err := p.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	writes := store.recorded()
	if len(writes) != 1 {
		t.Fatalf("recorded %d writes, want 1", len(writes))
	}
	if writes[0].ProgressPercent != 42 || writes[0].StudySecondsDelta != 90 {
		t.Errorf("flush wrote %+v, want the pending 42%%/90s", writes[0])
	}
}

func TestPipeline_SecondsOnlyFlushKeepsPosition(t *testing.T) {
	store := &fakeStore{}
	p := NewPipeline(store, uuid.New(), uuid.New(), fastOpts()...)
	ctx := context.Background()

	// Study time accrued but no position ever reported.
	p.ReportSeconds(240)
	if err := p.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	writes := store.recorded()
	if len(writes) != 1 {
		t.Fatalf("recorded %d writes, want 1", len(writes))
	}
	if !writes[0].KeepPosition {
		t.Error("seconds-only write must not overwrite the stored position")
	}
	if writes[0].StudySecondsDelta != 240 {
		t.Errorf("delta = %d, want 240", writes[0].StudySecondsDelta)
	}

	// Once a position arrives, writes carry it again.
	if err := p.Save(ctx, 55, 300, true); err != nil {
		t.Fatalf("save: %v", err)
	}
	writes = store.recorded()
	if writes[1].KeepPosition {
		t.Error("write with a reported position must update it")
	}
	if writes[1].ProgressPercent != 55 {
		t.Errorf("write carried %.0f%%, want 55", writes[1].ProgressPercent)
	}
}

func TestRegistry_OnePipelinePerPair(t *testing.T) {
	r := NewRegistry(&fakeStore{})
	user := uuid.New()
	docA := uuid.New()
	docB := uuid.New()

	if r.For(user, docA) != r.For(user, docA) {
		t.Error("same pair got two pipelines")
	}
	if r.For(user, docA) == r.For(user, docB) {
		t.Error("different documents share a pipeline")
	}

	r.Drop(user, docA)
	if r.For(user, docA) == nil {
		t.Error("dropped pair cannot be recreated")
	}
}
