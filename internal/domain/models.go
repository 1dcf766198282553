package domain

import "time"

// Subject identifies a question category.
type Subject string

const (
	SubjectMath    Subject = "math"
	SubjectEnglish Subject = "english"
)

// Difficulty selects the size and pace of a quiz.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Mode selects between a countdown quiz and an untimed one.
type Mode string

const (
	ModeTimed    Mode = "timed"
	ModePractice Mode = "practice"
)

// Settings are chosen before a quiz starts and stay fixed for its lifetime.
type Settings struct {
	Subject    Subject    `json:"subject"`
	Difficulty Difficulty `json:"difficulty"`
	Mode       Mode       `json:"mode"`
}

// DefaultSettings matches the initial selection offered to a new player.
func DefaultSettings() Settings {
	return Settings{
		Subject:    SubjectMath,
		Difficulty: DifficultyEasy,
		Mode:       ModeTimed,
	}
}

// Question models an MCQ question with exactly one correct option among four.
// The JSON tags match the wire format the question generator emits.
type Question struct {
	Text    string   `json:"q"`
	Options []string `json:"a"`
	Correct int      `json:"correct"`
}

// SubjectStats counts outcomes within a single subject.
type SubjectStats struct {
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
}

// Stats is the cumulative progress record for one identity (guest or account).
type Stats struct {
	TotalQuizzes         int                      `json:"totalQuizzes"`
	TotalCorrect         int                      `json:"totalCorrect"`
	TotalIncorrect       int                      `json:"totalIncorrect"`
	TotalScore           int                      `json:"totalScore"`
	UnlockedAchievements []string                 `json:"unlockedAchievements"`
	Subjects             map[Subject]SubjectStats `json:"subjects"`
}

// Daily tracks the daily-challenge streak. LastDate is a civil date in
// "2006-01-02" form, empty when no challenge has ever been played.
type Daily struct {
	LastDate string `json:"lastDate,omitempty"`
	Streak   int    `json:"streak"`
}

// DefaultStats returns the canonical zeroed shape, with every known subject
// seeded so callers never index a missing entry.
func DefaultStats() Stats {
	return Stats{
		UnlockedAchievements: []string{},
		Subjects: map[Subject]SubjectStats{
			SubjectMath:    {},
			SubjectEnglish: {},
		},
	}
}

// DefaultDaily returns the zeroed streak record.
func DefaultDaily() Daily {
	return Daily{}
}

// Account is one stored account record: credentials plus progress.
type Account struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Password   string    `json:"password"`
	Stats      Stats     `json:"stats"`
	Daily      Daily     `json:"daily"`
	Created    time.Time `json:"created"`
	LastActive time.Time `json:"lastActive"`
}

// SessionOutcome summarizes one finished quiz for achievement predicates
// and result presentation.
type SessionOutcome struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
	Scaled  int `json:"scaled"`
}
