package progress

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Write is one persisted progress mutation. StudySecondsDelta carries only
// the seconds accumulated since the previous successful save, so a retried
// write converges instead of double-counting; AttemptID lets the store
// reject a duplicate delivery of the same attempt. KeepPosition is set
// when no reading position was ever reported: the write then credits
// study time without disturbing the stored position.
type Write struct {
	UserID            uuid.UUID
	DocumentID        uuid.UUID
	ProgressPercent   float64
	StudySecondsDelta int
	AttemptID         uuid.UUID
	KeepPosition      bool
}

// Store persists progress records. Implementations must be safe for
// concurrent use.
type Store interface {
	SaveProgress(ctx context.Context, w Write) error
}

const (
	// Scroll positions closer than this to the last saved value are not
	// worth a remote write.
	progressGate = 5.0

	defaultDebounce   = 2 * time.Second
	defaultRetryDelay = 2 * time.Second
	maxRetries        = 3
)

// Pipeline debounces, deduplicates and retries progress writes for one
// (user, document) pair. Reading progress changes on every scroll tick;
// the pipeline gates small movements, coalesces bursts behind a debounce
// timer and keeps at most one write in flight.
type Pipeline struct {
	store      Store
	userID     uuid.UUID
	documentID uuid.UUID

	debounce   time.Duration
	retryDelay func(attempt int) time.Duration

	onSaved func(progressPercent float64, at time.Time)
	onError func(err error)

	mu                sync.Mutex
	lastSavedProgress float64
	lastSavedAt       time.Time
	latestProgress    float64
	positionReported  bool
	reportedSeconds   int
	savedSeconds      int
	timer             *time.Timer
	inFlight          chan struct{}
}

type Option func(*Pipeline)

// WithDebounce overrides the debounce delay.
func WithDebounce(d time.Duration) Option {
	return func(p *Pipeline) { p.debounce = d }
}

// WithRetryDelay overrides the backoff schedule; attempt starts at 1.
func WithRetryDelay(fn func(attempt int) time.Duration) Option {
	return func(p *Pipeline) { p.retryDelay = fn }
}

// WithSavedFunc registers a callback invoked after each successful save,
// used to render save-status UI.
func WithSavedFunc(fn func(progressPercent float64, at time.Time)) Option {
	return func(p *Pipeline) { p.onSaved = fn }
}

// WithErrorFunc registers a callback invoked once per write that exhausts
// its retries. The failure is non-fatal; local state is untouched.
func WithErrorFunc(fn func(err error)) Option {
	return func(p *Pipeline) { p.onError = fn }
}

func NewPipeline(store Store, userID, documentID uuid.UUID, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:      store,
		userID:     userID,
		documentID: documentID,
		debounce:   defaultDebounce,
		retryDelay: func(attempt int) time.Duration {
			return time.Duration(attempt) * defaultRetryDelay
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Save reports the latest reading progress and the cumulative study
// seconds observed so far. Non-immediate saves are dropped when the
// progress moved less than the gate, otherwise scheduled behind the
// debounce timer; only the latest pending value survives. An immediate
// save bypasses gate and debounce, waits for any in-flight write to
// settle and then writes synchronously.
func (p *Pipeline) Save(ctx context.Context, progressPercent float64, studySeconds int, immediate bool) error {
	progressPercent = clampPercent(progressPercent)

	p.mu.Lock()
	if studySeconds > p.reportedSeconds {
		p.reportedSeconds = studySeconds
	}

	// Always remember the position so a later flush writes the real
	// value, even when this report itself is not worth a write.
	p.latestProgress = progressPercent
	p.positionReported = true

	if !immediate {
		if abs(progressPercent-p.lastSavedProgress) < progressGate {
			p.mu.Unlock()
			return nil
		}
		p.scheduleLocked()
		p.mu.Unlock()
		return nil
	}
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.mu.Unlock()

	return p.flush(ctx)
}

// ReportSeconds records cumulative study seconds without reporting a
// reading position. A later flush credits the time but leaves the stored
// position alone.
func (p *Pipeline) ReportSeconds(studySeconds int) {
	p.mu.Lock()
	if studySeconds > p.reportedSeconds {
		p.reportedSeconds = studySeconds
	}
	p.mu.Unlock()
}

// Flush forces an immediate write of whatever state is pending, cancelling
// any debounce timer first. Used by session end.
func (p *Pipeline) Flush(ctx context.Context) error {
	p.mu.Lock()
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.mu.Unlock()
	return p.flush(ctx)
}

// LastSaved returns the progress value and wall-clock time of the most
// recent successful save.
func (p *Pipeline) LastSaved() (float64, time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastSavedProgress, p.lastSavedAt
}

// UnsavedSeconds reports study time not yet confirmed by the store.
func (p *Pipeline) UnsavedSeconds() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reportedSeconds - p.savedSeconds
}

func (p *Pipeline) scheduleLocked() {
	if p.timer != nil {
		// Coalesce: restarting the timer keeps only the latest pending
		// write.
		p.timer.Stop()
	}
	p.timer = time.AfterFunc(p.debounce, func() {
		p.mu.Lock()
		p.timer = nil
		p.mu.Unlock()
		// Errors are already surfaced through the error callback.
		_ = p.flush(context.Background())
	})
}

// flush issues one write, retrying with backoff. At most one write is in
// flight at a time; a concurrent flush queues behind it to preserve write
// ordering, then re-reads the latest state so stale values never overwrite
// fresh ones.
func (p *Pipeline) flush(ctx context.Context) error {
	p.mu.Lock()
	for p.inFlight != nil {
		settled := p.inFlight
		p.mu.Unlock()
		select {
		case <-settled:
		case <-ctx.Done():
			return ctx.Err()
		}
		p.mu.Lock()
	}

	w := Write{
		UserID:            p.userID,
		DocumentID:        p.documentID,
		ProgressPercent:   p.latestProgress,
		StudySecondsDelta: p.reportedSeconds - p.savedSeconds,
		AttemptID:         uuid.New(),
		KeepPosition:      !p.positionReported,
	}
	done := make(chan struct{})
	p.inFlight = done
	p.mu.Unlock()

	var err error
retries:
	for try := 0; ; try++ {
		err = p.store.SaveProgress(ctx, w)
		if err == nil || try == maxRetries {
			break
		}
		timer := time.NewTimer(p.retryDelay(try + 1))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			err = ctx.Err()
			break retries
		}
	}

	p.mu.Lock()
	p.inFlight = nil
	close(done)
	if err == nil {
		p.lastSavedProgress = w.ProgressPercent
		p.savedSeconds += w.StudySecondsDelta
		p.lastSavedAt = time.Now()
		onSaved := p.onSaved
		at := p.lastSavedAt
		p.mu.Unlock()
		if onSaved != nil {
			onSaved(w.ProgressPercent, at)
		}
		return nil
	}
	onError := p.onError
	p.mu.Unlock()
	if onError != nil {
		onError(err)
	}
	return err
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
