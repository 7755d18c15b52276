package app

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/burggraf/trivia-party-new-2-sub000/internal/domain"
	"github.com/go-playground/validator/v10"
)

// GameConfig is the host-supplied configuration of a game.
type GameConfig struct {
	Title             string     `json:"title" validate:"required,max=120"`
	ScheduledAt       *time.Time `json:"scheduledAt"`
	TotalRounds       int        `json:"totalRounds" validate:"min=1"`
	QuestionsPerRound int        `json:"questionsPerRound" validate:"min=1"`
	Categories        []string   `json:"categories" validate:"min=1,dive,required,max=64"`
	MaxTeams          int        `json:"maxTeams" validate:"min=1"`
	MaxPlayersPerTeam int        `json:"maxPlayersPerTeam" validate:"min=1"`
	MinPlayersPerTeam int        `json:"minPlayersPerTeam" validate:"min=1,ltefield=MaxPlayersPerTeam"`
}

// normalize trims text fields and drops repeated categories.
func (c GameConfig) normalize() GameConfig {
	c.Title = strings.TrimSpace(c.Title)
	if c.Categories == nil {
		return c
	}
	seen := make(map[string]struct{}, len(c.Categories))
	categories := make([]string, 0, len(c.Categories))
	for _, category := range c.Categories {
		category = strings.TrimSpace(category)
		if _, dup := seen[category]; dup && category != "" {
			continue
		}
		seen[category] = struct{}{}
		categories = append(categories, category)
	}
	c.Categories = categories
	return c
}

// TeamInput is the caller-supplied part of a team.
type TeamInput struct {
	Name  string `json:"name" validate:"required,max=50"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

func (in TeamInput) normalize() TeamInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Color = strings.TrimSpace(in.Color)
	return in
}

// AnswerInput is one team submission.
type AnswerInput struct {
	TeamID          string `json:"teamId" validate:"required"`
	RoundQuestionID string `json:"roundQuestionId" validate:"required"`
	AnswerLabel     string `json:"answerLabel" validate:"required,oneof=A B C D a b c d"`
	PlayerID        string `json:"playerId" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct reports every violated rule of v as one ValidationError.
func validateStruct(resource string, v any) *domain.ValidationError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	out := &domain.ValidationError{Resource: resource}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out.Add(resource, "invalid", err.Error())
		return out
	}
	for _, fe := range verrs {
		out.Add(fe.Field(), fe.Tag(), fieldMessage(fe))
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s entries", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "ltefield":
		return "must not exceed maxPlayersPerTeam"
	case "hexcolor":
		return "must be a hex color such as #1e90ff"
	case "oneof":
		return "must be one of " + strings.Join(domain.OptionLabels[:], ", ")
	}
	return "is invalid"
}

// asError keeps a nil *ValidationError from becoming a non-nil error.
func asError(verr *domain.ValidationError) error {
	if verr == nil || len(verr.Fields) == 0 {
		return nil
	}
	return verr
}
