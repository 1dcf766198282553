package questions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"sat-prep-service/internal/domain"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-3-flash-preview"

	explainFallback = "Failed to fetch AI explanation."
)

// Generator fetches AI-generated questions and explanations over the
// generative-language REST API. Question fetches fail soft: any transport
// or parse error yields an empty slice so callers can fall back. Explain
// always resolves, substituting a fallback string on failure.
type Generator struct {
	client  *http.Client
	baseURL string
	model   string
	apiKey  string
}

func NewGenerator(apiKey, model, baseURL string) *Generator {
	if model == "" {
		model = defaultModel
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Generator{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: baseURL,
		model:   model,
		apiKey:  apiKey,
	}
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (g *Generator) FetchQuestions(ctx context.Context, subject domain.Subject, difficulty domain.Difficulty, count int) ([]domain.Question, error) {
	prompt := questionPrompt(subject, difficulty, count)
	text, err := g.generate(ctx, prompt, true)
	if err != nil {
		log.Printf("question generation failed: %v", err)
		return nil, nil
	}

	var raw []domain.Question
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		log.Printf("question generation returned malformed JSON: %v", err)
		return nil, nil
	}

	questions := raw[:0]
	for _, q := range raw {
		if len(q.Options) == 4 && q.Correct >= 0 && q.Correct < 4 && q.Text != "" {
			questions = append(questions, q)
		}
	}
	return questions, nil
}

// Explain produces a tutor-style explanation for one question. Never
// returns an error to the caller.
func (g *Generator) Explain(ctx context.Context, q domain.Question) string {
	if q.Correct < 0 || q.Correct >= len(q.Options) {
		return explainFallback
	}
	prompt := fmt.Sprintf(`You are an expert SAT tutor. Provide a comprehensive explanation for the following question.

Structure your response clearly with these sections (use bolding for headers):

**1. Core Concept**
Briefly identify the rule or skill being tested.

**2. Step-by-Step Solution**
Clear, logical steps to arrive at the correct answer.

**3. Common Pitfalls**
Explain why the most plausible distractor is wrong.

Question: %q
Options: %s
Correct Answer: %q`, q.Text, strings.Join(q.Options, ", "), q.Options[q.Correct])

	text, err := g.generate(ctx, prompt, false)
	if err != nil || text == "" {
		if err != nil {
			log.Printf("explanation failed: %v", err)
		}
		return explainFallback
	}
	return text
}

func (g *Generator) generate(ctx context.Context, prompt string, jsonOutput bool) (string, error) {
	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}
	if jsonOutput {
		reqBody.GenerationConfig = &generationConfig{ResponseMimeType: "application/json"}
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generate: unexpected status %s", resp.Status)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("generate: empty response")
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}

func questionPrompt(subject domain.Subject, difficulty domain.Difficulty, count int) string {
	subjectGuidelines := map[domain.Subject]string{
		domain.SubjectMath: `Focus on "Heart of Algebra", "Problem Solving and Data Analysis", "Passport to Advanced Math".
- Include a mix of word problems and equation solving.
- Ensure incorrect answers are plausible.`,
		domain.SubjectEnglish: `Focus on "Standard English Conventions" and "Expression of Ideas".
- Include questions on grammar, punctuation, and vocabulary in context.`,
	}
	difficultyGuidelines := map[domain.Difficulty]string{
		domain.DifficultyEasy:   "Questions should test core concepts directly.",
		domain.DifficultyMedium: "Questions should require combining multiple concepts.",
		domain.DifficultyHard:   "Questions should be challenging, involving complex logic.",
	}

	return fmt.Sprintf(`Generate %d unique, high-quality SAT practice questions for %s at a %s difficulty level.

Strict Design Rules:
1. **Format**: Multiple-choice with exactly 4 options.
2. **Variety**: PENALIZE repetition.
3. **Complexity**: Mirror Digital SAT style.

Subject Guidelines:
%s

Difficulty Guidelines:
%s

Output Format:
Return strictly a JSON array of objects with keys "q" (string), "a" (array of 4 strings), and "correct" (integer index).`,
		count, subject, difficulty, subjectGuidelines[subject], difficultyGuidelines[difficulty])
}
