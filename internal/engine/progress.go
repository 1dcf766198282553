package engine

import (
	"context"
	"log"
	"time"

	"sat-prep-service/internal/domain"
)

// AccountStore abstracts how accounts are persisted (in-memory, Redis, etc).
type AccountStore interface {
	// CurrentUser returns the username the store remembers as signed in,
	// or "" when none.
	CurrentUser(ctx context.Context) (string, error)
	Lookup(ctx context.Context, username string) (domain.Account, error)
	Login(ctx context.Context, username, password string) (domain.Account, error)
	Signup(ctx context.Context, username, password string, stats domain.Stats, daily domain.Daily) (domain.Account, error)
	Logout(ctx context.Context) error
	// SaveProgress is a fire-and-forget upsert of an account's progress.
	SaveProgress(ctx context.Context, username string, stats domain.Stats, daily domain.Daily) error
}

// GuestStore persists the anonymous, device-local progress slot.
type GuestStore interface {
	Load(ctx context.Context) (domain.Stats, domain.Daily, bool, error)
	Save(ctx context.Context, stats domain.Stats, daily domain.Daily) error
	Theme(ctx context.Context) (string, error)
	SetTheme(ctx context.Context, theme string) error
}

const civilDateLayout = "2006-01-02"

// progress owns the single authoritative Stats/Daily pair and routes every
// mutation to exactly one persistence target, decided by the current
// identity. It carries no lock of its own: the engine mutex serializes it.
type progress struct {
	accounts AccountStore
	guest    GuestStore

	user  string // "" while a guest
	stats domain.Stats
	daily domain.Daily
}

func newProgress(accounts AccountStore, guest GuestStore) *progress {
	return &progress{
		accounts: accounts,
		guest:    guest,
		stats:    domain.DefaultStats(),
		daily:    domain.DefaultDaily(),
	}
}

// restore resumes the identity the stores remember: a still-valid session
// pointer wins, otherwise the guest slot. A stale pointer (account gone)
// is cleared rather than surfaced.
func (p *progress) restore(ctx context.Context) {
	user, err := p.accounts.CurrentUser(ctx)
	if err == nil && user != "" {
		account, err := p.accounts.Lookup(ctx, user)
		if err == nil {
			p.adopt(user, account.Stats, account.Daily)
			return
		}
		_ = p.accounts.Logout(ctx)
	}
	p.loadGuest(ctx)
}

func (p *progress) loadGuest(ctx context.Context) {
	p.user = ""
	stats, daily, ok, err := p.guest.Load(ctx)
	if err != nil || !ok {
		p.stats = domain.DefaultStats()
		p.daily = domain.DefaultDaily()
		return
	}
	p.stats = domain.NormalizeStats(stats)
	p.daily = daily
}

func (p *progress) adopt(user string, stats domain.Stats, daily domain.Daily) {
	p.user = user
	p.stats = domain.NormalizeStats(stats)
	p.daily = daily
}

// login replaces in-memory progress with the account's stored values.
func (p *progress) login(ctx context.Context, username, password string) error {
	account, err := p.accounts.Login(ctx, username, password)
	if err != nil {
		return err
	}
	p.adopt(account.Username, account.Stats, account.Daily)
	return nil
}

// signup adopts the current guest progress as the new account's initial
// values, so nothing earned anonymously is lost.
func (p *progress) signup(ctx context.Context, username, password string) error {
	account, err := p.accounts.Signup(ctx, username, password, p.stats, p.daily)
	if err != nil {
		return err
	}
	p.user = account.Username
	return nil
}

// logout reverts to whatever guest progress is persisted locally; the
// account's values stay in the account store untouched.
func (p *progress) logout(ctx context.Context) {
	_ = p.accounts.Logout(ctx)
	p.loadGuest(ctx)
}

// reset zeroes both records and persists to the currently active target.
func (p *progress) reset(ctx context.Context) {
	p.stats = domain.DefaultStats()
	p.daily = domain.DefaultDaily()
	p.persist(ctx)
}

// persist writes to the account slot while signed in, the guest slot
// otherwise. Failures are logged, never fatal.
func (p *progress) persist(ctx context.Context) {
	var err error
	if p.user != "" {
		err = p.accounts.SaveProgress(ctx, p.user, p.stats, p.daily)
	} else {
		err = p.guest.Save(ctx, p.stats, p.daily)
	}
	if err != nil {
		log.Printf("persist progress: %v", err)
	}
}

// recordOutcome applies one finished quiz to the cumulative record,
// evaluates achievements against the post-increment state, and persists.
// Returns the achievement IDs unlocked by this quiz.
func (p *progress) recordOutcome(ctx context.Context, subject domain.Subject, outcome domain.SessionOutcome) []string {
	p.stats.TotalQuizzes++
	p.stats.TotalCorrect += outcome.Correct
	p.stats.TotalIncorrect += outcome.Total - outcome.Correct
	p.stats.TotalScore += outcome.Scaled

	sub := p.stats.Subjects[subject]
	sub.Correct += outcome.Correct
	sub.Incorrect += outcome.Total - outcome.Correct
	p.stats.Subjects[subject] = sub

	unlocked := evaluateAchievements(&p.stats, p.daily, &outcome)
	p.persist(ctx)
	return unlocked
}

// touchDaily applies the streak rule for a daily challenge started today.
// A repeat start on the same calendar date changes nothing; a start exactly
// one day after the last one extends the streak; any other gap resets it.
func (p *progress) touchDaily(ctx context.Context, today time.Time) {
	date := today.Format(civilDateLayout)
	if p.daily.LastDate == date {
		return
	}
	if p.daily.LastDate == yesterdayOf(today) {
		p.daily.Streak++
	} else {
		p.daily.Streak = 1
	}
	p.daily.LastDate = date
	p.persist(ctx)
}

func yesterdayOf(today time.Time) string {
	return today.AddDate(0, 0, -1).Format(civilDateLayout)
}
