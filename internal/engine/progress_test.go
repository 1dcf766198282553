package engine

import (
	"context"
	"testing"
	"time"

	"sat-prep-service/internal/domain"
	"sat-prep-service/internal/infra/memory"
)

func TestPerfectionistRequiresFiveQuestions(t *testing.T) {
	stats := domain.DefaultStats()
	stats.TotalQuizzes = 1

	short := &domain.SessionOutcome{Correct: 3, Total: 3, Scaled: 800}
	if unlocked := evaluateAchievements(&stats, domain.Daily{}, short); contains(unlocked, "perfectionist") {
		t.Fatalf("perfect 3-question quiz must not unlock perfectionist")
	}

	full := &domain.SessionOutcome{Correct: 5, Total: 5, Scaled: 800}
	if unlocked := evaluateAchievements(&stats, domain.Daily{}, full); !contains(unlocked, "perfectionist") {
		t.Fatalf("perfect 5-question quiz should unlock perfectionist")
	}
}

func TestAchievementsAreMonotonic(t *testing.T) {
	stats := domain.DefaultStats()
	stats.TotalQuizzes = 1

	first := evaluateAchievements(&stats, domain.Daily{}, nil)
	if !contains(first, "first_steps") {
		t.Fatalf("expected first_steps unlock, got %v", first)
	}
	again := evaluateAchievements(&stats, domain.Daily{}, nil)
	if contains(again, "first_steps") {
		t.Fatalf("already unlocked achievement re-reported: %v", again)
	}
	if len(stats.UnlockedAchievements) != 1 {
		t.Fatalf("expected one stored unlock, got %v", stats.UnlockedAchievements)
	}
}

func TestStreakFlameUnlocksAtThreeDays(t *testing.T) {
	stats := domain.DefaultStats()
	if unlocked := evaluateAchievements(&stats, domain.Daily{Streak: 2}, nil); contains(unlocked, "streak_flame") {
		t.Fatalf("2-day streak must not unlock streak_flame")
	}
	if unlocked := evaluateAchievements(&stats, domain.Daily{Streak: 3}, nil); !contains(unlocked, "streak_flame") {
		t.Fatalf("3-day streak should unlock streak_flame")
	}
}

func TestLoginNormalizesLegacyAccountStats(t *testing.T) {
	ctx := context.Background()
	accounts := memory.NewAccountStore()
	guest := memory.NewGuestStore()

	// A record persisted before achievements or subject maps existed.
	if _, err := accounts.Signup(ctx, "veteran", "pw", domain.Stats{TotalQuizzes: 7}, domain.Daily{}); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	_ = accounts.Logout(ctx)

	e := New(&fakeSource{correct: 1}, accounts, guest, WithAdvanceDelay(time.Hour), WithTickInterval(time.Hour))
	if err := e.Login(ctx, "veteran", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}

	snap := e.Snapshot()
	if snap.User != "veteran" || snap.Stats.TotalQuizzes != 7 {
		t.Fatalf("expected veteran's stats, got %+v", snap)
	}
	if snap.Stats.UnlockedAchievements == nil || len(snap.Stats.UnlockedAchievements) != 0 {
		t.Fatalf("expected empty achievement list, got %v", snap.Stats.UnlockedAchievements)
	}
	if _, ok := snap.Stats.Subjects[domain.SubjectEnglish]; !ok {
		t.Fatalf("expected seeded subject counters, got %v", snap.Stats.Subjects)
	}
}

func TestSignupAdoptsGuestProgress(t *testing.T) {
	ctx := context.Background()
	accounts := memory.NewAccountStore()
	guest := memory.NewGuestStore()

	seeded := domain.DefaultStats()
	seeded.TotalQuizzes = 3
	seeded.TotalScore = 1200
	if err := guest.Save(ctx, seeded, domain.Daily{LastDate: "2025-03-09", Streak: 2}); err != nil {
		t.Fatalf("seed guest: %v", err)
	}

	e := New(&fakeSource{correct: 1}, accounts, guest, WithAdvanceDelay(time.Hour), WithTickInterval(time.Hour))
	e.Restore(ctx)
	if err := e.Signup(ctx, "newbie", "pw"); err != nil {
		t.Fatalf("signup: %v", err)
	}

	account, err := accounts.Lookup(ctx, "newbie")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if account.Stats.TotalQuizzes != 3 || account.Stats.TotalScore != 1200 {
		t.Fatalf("guest progress not adopted: %+v", account.Stats)
	}
	if account.Daily.Streak != 2 {
		t.Fatalf("guest streak not adopted: %+v", account.Daily)
	}
}

func TestLogoutRevertsToGuestProgress(t *testing.T) {
	ctx := context.Background()
	accounts := memory.NewAccountStore()
	guest := memory.NewGuestStore()

	guestStats := domain.DefaultStats()
	guestStats.TotalQuizzes = 2
	if err := guest.Save(ctx, guestStats, domain.Daily{}); err != nil {
		t.Fatalf("seed guest: %v", err)
	}
	accountStats := domain.DefaultStats()
	accountStats.TotalQuizzes = 50
	if _, err := accounts.Signup(ctx, "pro", "pw", accountStats, domain.Daily{}); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	_ = accounts.Logout(ctx)

	e := New(&fakeSource{correct: 1}, accounts, guest, WithAdvanceDelay(time.Hour), WithTickInterval(time.Hour))
	e.Restore(ctx)
	if err := e.Login(ctx, "pro", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if snap := e.Snapshot(); snap.Stats.TotalQuizzes != 50 {
		t.Fatalf("expected account stats after login, got %d", snap.Stats.TotalQuizzes)
	}

	e.Logout(ctx)
	snap := e.Snapshot()
	if snap.User != "" || snap.Stats.TotalQuizzes != 2 {
		t.Fatalf("expected guest stats after logout, got user=%q quizzes=%d", snap.User, snap.Stats.TotalQuizzes)
	}

	// The account's stored values stay intact.
	account, err := accounts.Lookup(ctx, "pro")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if account.Stats.TotalQuizzes != 50 {
		t.Fatalf("logout corrupted stored account: %+v", account.Stats)
	}
}

func TestSignedInProgressPersistsToAccount(t *testing.T) {
	ctx := context.Background()
	accounts := memory.NewAccountStore()
	guest := memory.NewGuestStore()

	e := New(&fakeSource{correct: 1}, accounts, guest, WithAdvanceDelay(time.Hour), WithTickInterval(time.Hour))
	e.Restore(ctx)
	if err := e.Signup(ctx, "player", "pw"); err != nil {
		t.Fatalf("signup: %v", err)
	}

	if err := e.Start(ctx, true); err != nil {
		t.Fatalf("start daily: %v", err)
	}
	e.SubmitAnswer(1)
	e.advance(e.gen(t))

	account, err := accounts.Lookup(ctx, "player")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if account.Stats.TotalQuizzes != 1 {
		t.Fatalf("finished quiz not persisted to account: %+v", account.Stats)
	}
	if _, _, saved, _ := guest.Load(ctx); saved {
		t.Fatalf("signed-in mutation must not touch the guest slot")
	}
}

func TestResetZeroesAndPersists(t *testing.T) {
	ctx := context.Background()
	e, guest := newTestEngine()

	if err := e.Start(ctx, false); err != nil {
		t.Fatalf("start: %v", err)
	}
	gen := e.gen(t)
	for i := 0; i < 10; i++ {
		e.SubmitAnswer(1)
		e.advance(gen)
	}
	if snap := e.Snapshot(); snap.Stats.TotalQuizzes != 1 {
		t.Fatalf("expected a scored quiz, got %+v", snap.Stats)
	}

	e.Reset(ctx)
	if snap := e.Snapshot(); snap.Stats.TotalQuizzes != 0 || snap.Daily.Streak != 0 {
		t.Fatalf("reset left residue: %+v", snap)
	}
	stats, daily, saved, err := guest.Load(ctx)
	if err != nil || !saved {
		t.Fatalf("expected persisted reset, saved=%v err=%v", saved, err)
	}
	if stats.TotalQuizzes != 0 || daily.Streak != 0 {
		t.Fatalf("persisted reset not zeroed: %+v %+v", stats, daily)
	}
}

func TestLevelThresholds(t *testing.T) {
	cases := []struct {
		correct int
		title   string
	}{
		{0, "Novice"},
		{19, "Novice"},
		{20, "Apprentice"},
		{99, "Scholar"},
		{100, "Expert"},
		{500, "Grandmaster"},
		{10000, "Grandmaster"},
	}
	for _, c := range cases {
		if got := LevelFor(c.correct); got.Title != c.title {
			t.Fatalf("LevelFor(%d) = %q, want %q", c.correct, got.Title, c.title)
		}
	}
}

func contains(ids []string, want string) bool {
	for _, id := range ids {
		if id == want {
			return true
		}
	}
	return false
}
