package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/burggraf/trivia-party-new-2-sub000/internal/domain"
	"gopkg.in/yaml.v3"
)

type questionEntry struct {
	ID       string            `yaml:"id"`
	Category string            `yaml:"category"`
	Prompt   string            `yaml:"prompt"`
	Options  map[string]string `yaml:"options"`
	Correct  string            `yaml:"correct"`
}

// LoadQuestions reads a YAML question bank file. Every entry needs an id,
// a category, a prompt, the four options A-D and a correct label among them.
func LoadQuestions(path string) ([]domain.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseQuestions(data)
}

func ParseQuestions(data []byte) ([]domain.Question, error) {
	var entries []questionEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse questions: %w", err)
	}
	questions := make([]domain.Question, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		q, err := e.question()
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		if _, dup := seen[q.ID]; dup {
			return nil, fmt.Errorf("question %d: duplicate id %q", i, q.ID)
		}
		seen[q.ID] = struct{}{}
		questions = append(questions, q)
	}
	return questions, nil
}

func (e questionEntry) question() (domain.Question, error) {
	q := domain.Question{
		ID:           strings.TrimSpace(e.ID),
		Category:     strings.TrimSpace(e.Category),
		Prompt:       strings.TrimSpace(e.Prompt),
		CorrectLabel: strings.ToUpper(strings.TrimSpace(e.Correct)),
	}
	if q.ID == "" || q.Category == "" || q.Prompt == "" {
		return domain.Question{}, fmt.Errorf("id, category and prompt are required")
	}
	options := make(map[string]string, len(e.Options))
	for label, text := range e.Options {
		options[strings.ToUpper(strings.TrimSpace(label))] = text
	}
	correct := false
	for i, label := range domain.OptionLabels {
		text, ok := options[label]
		if !ok || strings.TrimSpace(text) == "" {
			return domain.Question{}, fmt.Errorf("missing option %s", label)
		}
		q.Options[i] = domain.Option{Label: label, Text: text}
		if label == q.CorrectLabel {
			correct = true
		}
	}
	if !correct {
		return domain.Question{}, fmt.Errorf("unknown correct label %q", e.Correct)
	}
	return q, nil
}
