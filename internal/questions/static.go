package questions

import (
	"context"
	"math/rand"

	"sat-prep-service/internal/domain"
)

// StaticBank serves curated questions from an in-memory table, cycling when
// the request exceeds the bank size. Useful for demos, tests, and as a
// fallback when no generator is configured.
type StaticBank struct {
	banks map[domain.Subject]map[domain.Difficulty][]domain.Question
}

func NewStaticBank() *StaticBank {
	return &StaticBank{banks: curatedBanks}
}

// NewStaticBankWith wraps a custom table; handy for tests and for banks
// loaded from a backing store.
func NewStaticBankWith(banks map[domain.Subject]map[domain.Difficulty][]domain.Question) *StaticBank {
	return &StaticBank{banks: banks}
}

func (b *StaticBank) FetchQuestions(_ context.Context, subject domain.Subject, difficulty domain.Difficulty, count int) ([]domain.Question, error) {
	pool := b.banks[subject][difficulty]
	if len(pool) == 0 || count <= 0 {
		return nil, nil
	}

	shuffled := append([]domain.Question(nil), pool...)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	out := make([]domain.Question, 0, count)
	for len(out) < count {
		need := count - len(out)
		if need > len(shuffled) {
			need = len(shuffled)
		}
		out = append(out, shuffled[:need]...)
	}
	return out, nil
}

var curatedBanks = map[domain.Subject]map[domain.Difficulty][]domain.Question{
	domain.SubjectMath: {
		domain.DifficultyEasy: {
			{Text: "2 + 2 = ?", Options: []string{"3", "4", "5", "6"}, Correct: 1},
			{Text: "10 - 7 = ?", Options: []string{"1", "2", "3", "4"}, Correct: 2},
			{Text: "5 × 3 = ?", Options: []string{"15", "10", "20", "12"}, Correct: 0},
			{Text: "15 ÷ 3 = ?", Options: []string{"4", "5", "6", "7"}, Correct: 1},
			{Text: "7 + 6 = ?", Options: []string{"12", "13", "14", "15"}, Correct: 1},
			{Text: "9 - 4 = ?", Options: []string{"5", "4", "6", "3"}, Correct: 0},
			{Text: "8 × 2 = ?", Options: []string{"14", "16", "18", "20"}, Correct: 1},
			{Text: "12 ÷ 4 = ?", Options: []string{"2", "3", "4", "5"}, Correct: 1},
			{Text: "6 + 5 = ?", Options: []string{"10", "11", "12", "13"}, Correct: 1},
			{Text: "3 × 7 = ?", Options: []string{"20", "21", "19", "18"}, Correct: 1},
		},
		domain.DifficultyMedium: {
			{Text: "Solve for x: 2x + 5 = 13", Options: []string{"3", "4", "5", "6"}, Correct: 1},
			{Text: "If x = 4, what is 3x - 2?", Options: []string{"10", "11", "12", "13"}, Correct: 2},
			{Text: "Area of rectangle with length 5 and width 7?", Options: []string{"30", "35", "40", "45"}, Correct: 1},
			{Text: "What is 15% of 200?", Options: []string{"25", "30", "35", "40"}, Correct: 3},
			{Text: "Solve: 5x - 7 = 18", Options: []string{"4", "5", "6", "7"}, Correct: 3},
			{Text: "A triangle has base 10 and height 5. What is its area?", Options: []string{"20", "25", "30", "15"}, Correct: 1},
			{Text: "Solve for y: 3y + 4 = 19", Options: []string{"4", "5", "6", "7"}, Correct: 1},
			{Text: "What is the perimeter of a square with side 6?", Options: []string{"18", "22", "24", "30"}, Correct: 2},
		},
		domain.DifficultyHard: {
			{Text: "Solve for x: 2x² - 8x + 6 = 0", Options: []string{"1 or 3", "2 or 3", "1 or 2", "2 only"}, Correct: 0},
			{Text: "If f(x) = 3x + 2, what is f(5)?", Options: []string{"15", "16", "17", "18"}, Correct: 2},
			{Text: "A triangle has sides 5, 12, 13. What is its area?", Options: []string{"30", "60", "36", "50"}, Correct: 0},
			{Text: "If 2^x = 16, what is x?", Options: []string{"2", "3", "4", "5"}, Correct: 2},
			{Text: "Simplify: (x²y³)(2xy²)", Options: []string{"2x³y⁵", "2x³y⁶", "2x²y⁵", "2x³y⁴"}, Correct: 0},
			{Text: "Solve for x: x² - 9x + 20 = 0", Options: []string{"4 or 5", "5 or 4", "4 or 6", "5 or 6"}, Correct: 3},
			{Text: "Factor: x² - 16", Options: []string{"(x-4)(x+4)", "(x-8)(x+2)", "(x-2)(x+8)", "(x-1)(x+16)"}, Correct: 0},
		},
	},
	domain.SubjectEnglish: {
		domain.DifficultyEasy: {
			{Text: "Choose the correct word: Their/There going to the store.", Options: []string{"Their", "There", "They're", "The're"}, Correct: 2},
			{Text: "Select the correct spelling:", Options: []string{"Accomodate", "Accommodate", "Acommodate", "Acomodate"}, Correct: 1},
			{Text: "Pick the right word: Its/It's raining outside.", Options: []string{"Its", "It's", "Its'", "It is'"}, Correct: 1},
			{Text: "Choose the correct word: To/Too/Two many people came.", Options: []string{"To", "Too", "Two", "Tooo"}, Correct: 1},
			{Text: "Select the correct sentence:", Options: []string{"She don't like it.", "She doesn't like it.", "She not likes it.", "She doesn't likes it."}, Correct: 1},
			{Text: "Choose the best synonym for 'happy':", Options: []string{"Sad", "Joyful", "Angry", "Tired"}, Correct: 1},
			{Text: "Select the correct sentence:", Options: []string{"I have went there.", "I have gone there.", "I has gone there.", "I go there."}, Correct: 1},
			{Text: "Pick the correct word: He did good/well on the test.", Options: []string{"Good", "Well", "Welled", "Goods"}, Correct: 1},
		},
		domain.DifficultyMedium: {
			{Text: "Choose the best word to complete: Despite the rain, the picnic went on ___.", Options: []string{"successfully", "successful", "success", "succession"}, Correct: 0},
			{Text: "Pick the best synonym for 'ambiguous':", Options: []string{"clear", "vague", "obvious", "evident"}, Correct: 1},
			{Text: "Choose the correct sentence:", Options: []string{"He is more smarter than his brother.", "He is smarter than his brother.", "He is smart than his brother.", "He is the most smarter than his brother."}, Correct: 1},
			{Text: "Select the correct word: The committee reached a ___ decision.", Options: []string{"unanimous", "unique", "uniform", "unknown"}, Correct: 0},
			{Text: "Choose the correct sentence:", Options: []string{"Neither of the answers are correct.", "Neither of the answers is correct.", "Neither of the answers were correct.", "Neither of the answer is correct."}, Correct: 1},
			{Text: "Select the best synonym for 'meticulous':", Options: []string{"careful", "sloppy", "lazy", "hasty"}, Correct: 0},
			{Text: "Choose the correct sentence:", Options: []string{"He suggested to go early.", "He suggested going early.", "He suggested go early.", "He suggested gone early."}, Correct: 1},
		},
		domain.DifficultyHard: {
			{Text: "Choose the most precise word: The scientist provided a ___ analysis of the data.", Options: []string{"meticulous", "careless", "superficial", "ambiguous"}, Correct: 0},
			{Text: "Select the correct sentence:", Options: []string{"Had I known about the test, I would have studied.", "If I knew about the test, I would have studied.", "Had I knew about the test, I would have studied.", "If I had knew about the test, I would have studied."}, Correct: 0},
			{Text: "Pick the best synonym for 'cogent':", Options: []string{"convincing", "weak", "unpersuasive", "trivial"}, Correct: 0},
			{Text: "Select the best antonym for 'ephemeral':", Options: []string{"lasting", "brief", "fleeting", "transient"}, Correct: 0},
			{Text: "Choose the correct sentence:", Options: []string{"Seldom have I witnessed such dedication.", "Seldom I have witnessed such dedication.", "Seldom have I witnessing such dedication.", "Seldom I witnessed such dedication."}, Correct: 0},
			{Text: "Select the best synonym for 'obfuscate':", Options: []string{"confuse", "clarify", "explain", "illuminate"}, Correct: 0},
			{Text: "Choose the correct sentence:", Options: []string{"Not only did she excel in math, but also in science.", "Not only she excelled in math, but also in science.", "Not only did she excel in math, but she excelled also in science.", "Not only she excelled in math, also in science."}, Correct: 0},
		},
	},
}
