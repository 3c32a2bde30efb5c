package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"

	"github.com/pavelanni/revisor/internal/model"
)

// QuestionCount is the number of questions requested from the generative service.
const QuestionCount = 3

const maxKeyPointRunes = 500

//go:embed templates/*.tmpl
var templateFS embed.FS

var keyPointsTagRegex = regexp.MustCompile(`(?i)</?\s*key-points\b[^>]*>`)

var (
	loadOnce          sync.Once
	loadErr           error
	questionsTemplate *template.Template
)

// QuestionsData holds template data for the question generation prompt.
type QuestionsData struct {
	Topic        string
	Subject      string
	Difficulty   string
	HighPriority bool
	KeyPoints    []string
	Count        int
}

func load() error {
	loadOnce.Do(func() {
		tmpl, err := template.ParseFS(templateFS, "templates/questions.tmpl")
		if err != nil {
			loadErr = fmt.Errorf("parse prompt templates: %w", err)
			return
		}
		questionsTemplate = tmpl
	})
	return loadErr
}

// BuildQuestionsPrompt renders the prompt that asks for conceptual multiple-choice questions.
func BuildQuestionsPrompt(req model.TestRequest) (string, error) {
	if err := load(); err != nil {
		return "", err
	}

	points := make([]string, 0, len(req.KeyPoints))
	for _, p := range req.KeyPoints {
		if p = sanitizeKeyPoint(p); p != "" {
			points = append(points, p)
		}
	}

	data := QuestionsData{
		Topic:        req.Topic,
		Subject:      req.Subject,
		Difficulty:   string(req.Difficulty),
		HighPriority: req.Priority == model.PriorityHigh,
		KeyPoints:    points,
		Count:        QuestionCount,
	}

	var buf bytes.Buffer
	if err := questionsTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render questions prompt: %w", err)
	}
	return buf.String(), nil
}

func sanitizeKeyPoint(p string) string {
	p = keyPointsTagRegex.ReplaceAllString(p, "")
	p = strings.Join(strings.Fields(p), " ")

	if utf8.RuneCountInString(p) > maxKeyPointRunes {
		runes := []rune(p)
		p = string(runes[:maxKeyPointRunes]) + "..."
	}
	return p
}
