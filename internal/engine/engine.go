package engine

import (
	"context"
	"math"
	"sync"
	"time"

	"sat-prep-service/internal/domain"
)

// QuestionSource supplies the ordered question list for a quiz. It fails
// soft: on any upstream error it returns an empty slice, which the engine
// treats as a hard start failure.
type QuestionSource interface {
	FetchQuestions(ctx context.Context, subject domain.Subject, difficulty domain.Difficulty, count int) ([]domain.Question, error)
}

// Snapshot is the presentation-facing view of engine state. Every mutation
// publishes a fresh snapshot to subscribers.
type Snapshot struct {
	Screen   Screen          `json:"screen"`
	User     string          `json:"user,omitempty"`
	Settings domain.Settings `json:"settings"`

	CurrentIndex int              `json:"currentIndex"`
	Total        int              `json:"total"`
	TimeLeft     int              `json:"timeLeft"`
	Paused       bool             `json:"paused"`
	Question     *domain.Question `json:"question,omitempty"`
	Answers      map[int]int      `json:"answers,omitempty"`

	Outcome   *domain.SessionOutcome `json:"outcome,omitempty"`
	Unlocked  []string               `json:"unlocked,omitempty"`
	Questions []domain.Question      `json:"questions,omitempty"`

	Stats domain.Stats `json:"stats"`
	Daily domain.Daily `json:"daily"`
	Level Level        `json:"level"`
}

// Engine is the progression engine: it owns the single active session, the
// countdown, answer locking, scoring, and the stats/streak records. All
// mutation is serialized by one mutex; timer ticks and deferred advancement
// re-check the session generation so a superseded callback becomes a no-op.
type Engine struct {
	source QuestionSource

	now          func() time.Time
	advanceDelay time.Duration
	tickInterval time.Duration

	mu          sync.Mutex
	settings    domain.Settings
	session     *session
	generation  uint64
	loading     bool
	lastOutcome *domain.SessionOutcome
	unlocked    []string
	progress    *progress
	tickStop    chan struct{}
	subscribers map[chan Snapshot]struct{}
}

// Option tunes an Engine; used by tests for deterministic clocks and pacing.
type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithAdvanceDelay(d time.Duration) Option {
	return func(e *Engine) { e.advanceDelay = d }
}

func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) { e.tickInterval = d }
}

func New(source QuestionSource, accounts AccountStore, guest GuestStore, opts ...Option) *Engine {
	e := &Engine{
		source:       source,
		now:          time.Now,
		advanceDelay: 700 * time.Millisecond,
		tickInterval: time.Second,
		settings:     domain.DefaultSettings(),
		progress:     newProgress(accounts, guest),
		subscribers:  make(map[chan Snapshot]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Restore resumes the stored identity (signed-in account or guest slot).
// Call once before serving events.
func (e *Engine) Restore(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.progress.restore(ctx)
	e.broadcastLocked()
}

// Subscribe returns a channel receiving state snapshots, starting with the
// current one. The caller must invoke cancel to avoid leaks.
func (e *Engine) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	e.mu.Lock()
	e.subscribers[ch] = struct{}{}
	initial := e.snapshotLocked()
	e.mu.Unlock()

	ch <- initial

	cancel := func() {
		e.mu.Lock()
		if _, ok := e.subscribers[ch]; ok {
			delete(e.subscribers, ch)
			close(ch)
		}
		e.mu.Unlock()
	}
	return ch, cancel
}

// UpdateSettings replaces the quiz settings. Ignored while a session is
// active; settings are immutable for a session's lifetime.
func (e *Engine) UpdateSettings(s domain.Settings) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session != nil && e.session.isActive {
		return
	}
	e.settings = s
	e.broadcastLocked()
}

// Start fetches questions and opens a new session, discarding any prior one.
// A daily challenge is a single question on the difficulty's per-question
// budget, and banks the streak at start. An empty fetch aborts back to setup
// with domain.ErrNoQuestions and creates no session.
func (e *Engine) Start(ctx context.Context, dailyChallenge bool) error {
	e.mu.Lock()
	if e.loading {
		e.mu.Unlock()
		return domain.ErrQuizInProgress
	}
	e.stopTickerLocked()
	e.generation++ // invalidate any pending callback from the prior session
	e.session = nil
	e.lastOutcome = nil
	e.unlocked = nil
	e.loading = true
	settings := e.settings
	e.broadcastLocked()
	e.mu.Unlock()

	pace := difficultyPacing[settings.Difficulty]
	count := pace.Questions
	if dailyChallenge {
		count = 1
	}
	questions, err := e.source.FetchQuestions(ctx, settings.Subject, settings.Difficulty, count)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.loading = false
	if err != nil || len(questions) == 0 {
		e.broadcastLocked()
		if err == nil {
			err = domain.ErrNoQuestions
		}
		return err
	}

	var timeLeft int
	switch {
	case dailyChallenge:
		timeLeft = pace.SecondsPerQuest
	case settings.Mode == domain.ModeTimed:
		timeLeft = len(questions) * pace.SecondsPerQuest
	}

	if dailyChallenge {
		e.progress.touchDaily(ctx, e.now())
	}

	e.generation++
	e.session = newSession(e.generation, questions, timeLeft, dailyChallenge)
	if settings.Mode == domain.ModeTimed {
		e.startTickerLocked()
	}
	e.broadcastLocked()
	return nil
}

// SubmitAnswer locks in an option for the current question. Re-submission
// for an already answered question, or submission outside an active
// unpaused session, is a silent no-op. Advancement (or finishing, on the
// last question) happens after the reveal delay and re-checks that the same
// session is still active.
func (e *Engine) SubmitAnswer(option int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.session
	if s == nil || !s.isActive || s.isPaused || s.isFinished || s.answered() {
		return
	}
	if option < 0 || option >= len(s.questions[s.currentIndex].Options) {
		return
	}
	s.answers[s.currentIndex] = option
	gen := s.generation
	time.AfterFunc(e.advanceDelay, func() { e.advance(gen) })
	e.broadcastLocked()
}

// advance moves to the next question or finishes the quiz. It is the
// deferred half of SubmitAnswer and guards against a quit, timeout, or new
// session that raced the delay.
func (e *Engine) advance(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.session
	if s == nil || s.generation != gen || !s.isActive || s.isFinished {
		return
	}
	if s.lastQuestion() {
		e.finishLocked()
		return
	}
	s.currentIndex++
	e.broadcastLocked()
}

// Pause freezes the countdown. No other session state changes.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.session
	if s == nil || !s.isActive || s.isFinished || s.isPaused {
		return
	}
	s.isPaused = true
	e.stopTickerLocked()
	e.broadcastLocked()
}

// Resume restarts the countdown after a pause.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.session
	if s == nil || !s.isPaused || s.isFinished {
		return
	}
	s.isPaused = false
	if e.settings.Mode == domain.ModeTimed {
		e.startTickerLocked()
	}
	e.broadcastLocked()
}

// Quit discards the session without scoring. Stats and streak are untouched.
func (e *Engine) Quit() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return
	}
	e.stopTickerLocked()
	e.generation++ // pending advance callbacks see a stale generation
	e.session = nil
	e.lastOutcome = nil
	e.unlocked = nil
	e.broadcastLocked()
}

// startTickerLocked launches the one-second countdown goroutine for the
// current session. Caller holds the engine mutex.
func (e *Engine) startTickerLocked() {
	if e.session == nil || e.session.timeLeft <= 0 {
		return
	}
	stop := make(chan struct{})
	e.tickStop = stop
	gen := e.session.generation
	go func() {
		ticker := time.NewTicker(e.tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if !e.tick(gen) {
					return
				}
			case <-stop:
				return
			}
		}
	}()
}

// stopTickerLocked cancels the countdown goroutine, if any.
func (e *Engine) stopTickerLocked() {
	if e.tickStop != nil {
		close(e.tickStop)
		e.tickStop = nil
	}
}

// tick decrements the countdown once. Returns false when the ticker should
// stop: the session was superseded, paused, or just expired.
func (e *Engine) tick(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.session
	if s == nil || s.generation != gen || !s.isActive || s.isPaused || s.isFinished {
		return false
	}
	s.timeLeft--
	if s.timeLeft <= 0 {
		s.timeLeft = 0
		e.finishLocked()
		return false
	}
	e.broadcastLocked()
	return true
}

// finishLocked is the single scoring entry point, reached from time expiry
// or last-question advancement. The isFinished guard makes a second arrival
// a no-op, so a timer racing a manual advancement cannot double-count.
func (e *Engine) finishLocked() {
	s := e.session
	if s == nil || s.isFinished {
		return
	}
	correct := 0
	for i, q := range s.questions {
		if a, ok := s.answers[i]; ok && a == q.Correct {
			correct++
		}
	}
	total := len(s.questions)
	s.score = correct
	s.isFinished = true
	s.isActive = false
	e.stopTickerLocked()

	outcome := domain.SessionOutcome{
		Correct: correct,
		Total:   total,
		Scaled:  scaledScore(correct, total),
	}
	e.lastOutcome = &outcome
	e.unlocked = e.progress.recordOutcome(context.Background(), e.settings.Subject, outcome)
	e.broadcastLocked()
}

// scaledScore maps session correctness onto the 200-800 standardized scale.
func scaledScore(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 800))
}

// Login swaps in the account's stored progress on success.
func (e *Engine) Login(ctx context.Context, username, password string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.progress.login(ctx, username, password); err != nil {
		return err
	}
	e.broadcastLocked()
	return nil
}

// Signup creates an account seeded with the current guest progress.
func (e *Engine) Signup(ctx context.Context, username, password string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.progress.signup(ctx, username, password); err != nil {
		return err
	}
	e.broadcastLocked()
	return nil
}

// Logout reverts to the locally persisted guest progress.
func (e *Engine) Logout(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.progress.logout(ctx)
	e.broadcastLocked()
}

// Reset zeroes stats and streak for the current identity and persists.
func (e *Engine) Reset(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.progress.reset(ctx)
	e.broadcastLocked()
}

// Theme reads the device-local theme preference.
func (e *Engine) Theme(ctx context.Context) string {
	e.mu.Lock()
	guest := e.progress.guest
	e.mu.Unlock()
	theme, err := guest.Theme(ctx)
	if err != nil || theme == "" {
		return "dark"
	}
	return theme
}

// SetTheme stores the device-local theme preference.
func (e *Engine) SetTheme(ctx context.Context, theme string) {
	e.mu.Lock()
	guest := e.progress.guest
	e.mu.Unlock()
	_ = guest.SetTheme(ctx, theme)
}

// Snapshot returns the current presentation state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	snap := Snapshot{
		Screen:   ScreenSetup,
		User:     e.progress.user,
		Settings: e.settings,
		Stats:    domain.CloneStats(e.progress.stats),
		Daily:    e.progress.daily,
		Level:    LevelFor(e.progress.stats.Subjects[e.settings.Subject].Correct),
	}
	if e.loading {
		snap.Screen = ScreenLoading
		return snap
	}
	s := e.session
	if s == nil {
		return snap
	}
	snap.CurrentIndex = s.currentIndex
	snap.Total = len(s.questions)
	snap.TimeLeft = s.timeLeft
	snap.Paused = s.isPaused
	snap.Answers = cloneAnswers(s.answers)
	if s.isFinished {
		snap.Screen = ScreenResult
		snap.Outcome = e.lastOutcome
		snap.Unlocked = append([]string(nil), e.unlocked...)
		snap.Questions = append([]domain.Question(nil), s.questions...)
		return snap
	}
	snap.Screen = ScreenQuiz
	q := s.questions[s.currentIndex]
	snap.Question = &q
	return snap
}

func cloneAnswers(answers map[int]int) map[int]int {
	out := make(map[int]int, len(answers))
	for k, v := range answers {
		out[k] = v
	}
	return out
}

// broadcastLocked pushes the current snapshot to every subscriber without
// blocking on slow consumers: a full channel drops its oldest entry first.
func (e *Engine) broadcastLocked() {
	snap := e.snapshotLocked()
	for ch := range e.subscribers {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}
