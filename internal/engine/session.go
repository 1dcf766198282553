package engine

import "sat-prep-service/internal/domain"

// Screen names the phase the presentation layer should render.
type Screen string

const (
	ScreenSetup   Screen = "setup"
	ScreenLoading Screen = "loading"
	ScreenQuiz    Screen = "quiz"
	ScreenResult  Screen = "result"
)

// pacing fixes question count and per-question time budget per difficulty.
type pacing struct {
	Questions       int
	SecondsPerQuest int
}

var difficultyPacing = map[domain.Difficulty]pacing{
	domain.DifficultyEasy:   {Questions: 10, SecondsPerQuest: 120},
	domain.DifficultyMedium: {Questions: 20, SecondsPerQuest: 75},
	domain.DifficultyHard:   {Questions: 30, SecondsPerQuest: 45},
}

// session is one play-through of a fixed question list. It is mutated only
// under the engine mutex; the generation stamp lets deferred callbacks detect
// that a newer session (or a quit) superseded them.
type session struct {
	generation uint64

	questions    []domain.Question
	currentIndex int
	answers      map[int]int
	score        int
	timeLeft     int

	isDaily    bool
	isPaused   bool
	isActive   bool
	isFinished bool
}

func newSession(generation uint64, questions []domain.Question, timeLeft int, daily bool) *session {
	return &session{
		generation: generation,
		questions:  questions,
		answers:    make(map[int]int),
		timeLeft:   timeLeft,
		isDaily:    daily,
		isActive:   true,
	}
}

// answered reports whether the cursor question already has a locked answer.
func (s *session) answered() bool {
	_, ok := s.answers[s.currentIndex]
	return ok
}

func (s *session) lastQuestion() bool {
	return s.currentIndex >= len(s.questions)-1
}
