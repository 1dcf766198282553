package engine

import "sat-prep-service/internal/domain"

// Achievement is a catalog entry with a pure predicate over the updated
// stats, streak, and (for session-scoped awards) the finished quiz outcome.
// Outcome is nil when evaluation happens outside a quiz completion.
type Achievement struct {
	ID       string `json:"id"`
	Icon     string `json:"icon"`
	Title    string `json:"title"`
	Desc     string `json:"desc"`
	Unlocked func(stats domain.Stats, daily domain.Daily, outcome *domain.SessionOutcome) bool `json:"-"`
}

// Achievements is the fixed catalog. IDs are persisted, so they must never
// be renamed.
var Achievements = []Achievement{
	{
		ID: "first_steps", Icon: "🏁", Title: "First Steps", Desc: "Complete your first quiz",
		Unlocked: func(stats domain.Stats, _ domain.Daily, _ *domain.SessionOutcome) bool {
			return stats.TotalQuizzes >= 1
		},
	},
	{
		ID: "math_whiz", Icon: "🧮", Title: "Math Whiz", Desc: "Get 50 Math questions correct",
		Unlocked: func(stats domain.Stats, _ domain.Daily, _ *domain.SessionOutcome) bool {
			return stats.Subjects[domain.SubjectMath].Correct >= 50
		},
	},
	{
		ID: "wordsmith", Icon: "📚", Title: "Wordsmith", Desc: "Get 50 English questions correct",
		Unlocked: func(stats domain.Stats, _ domain.Daily, _ *domain.SessionOutcome) bool {
			return stats.Subjects[domain.SubjectEnglish].Correct >= 50
		},
	},
	{
		ID: "streak_flame", Icon: "🔥", Title: "On Fire", Desc: "Reach a 3-day streak",
		Unlocked: func(_ domain.Stats, daily domain.Daily, _ *domain.SessionOutcome) bool {
			return daily.Streak >= 3
		},
	},
	{
		ID: "perfectionist", Icon: "💎", Title: "Perfectionist", Desc: "Get 100% on a quiz",
		Unlocked: func(_ domain.Stats, _ domain.Daily, outcome *domain.SessionOutcome) bool {
			return outcome != nil && outcome.Total >= 5 && outcome.Correct == outcome.Total
		},
	},
	{
		ID: "dedicated", Icon: "🏋️", Title: "Dedicated", Desc: "Complete 25 total quizzes",
		Unlocked: func(stats domain.Stats, _ domain.Daily, _ *domain.SessionOutcome) bool {
			return stats.TotalQuizzes >= 25
		},
	},
}

// evaluateAchievements unions newly satisfied achievements into the stats
// record and returns the IDs unlocked by this evaluation. Already-unlocked
// IDs are never re-evaluated or removed.
func evaluateAchievements(stats *domain.Stats, daily domain.Daily, outcome *domain.SessionOutcome) []string {
	have := make(map[string]struct{}, len(stats.UnlockedAchievements))
	for _, id := range stats.UnlockedAchievements {
		have[id] = struct{}{}
	}
	var unlocked []string
	for _, a := range Achievements {
		if _, ok := have[a.ID]; ok {
			continue
		}
		if a.Unlocked(*stats, daily, outcome) {
			stats.UnlockedAchievements = append(stats.UnlockedAchievements, a.ID)
			unlocked = append(unlocked, a.ID)
		}
	}
	return unlocked
}
