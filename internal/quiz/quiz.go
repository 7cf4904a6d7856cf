// Package quiz generates multiple-choice questions from a list of compounds.
//
// Generation is deterministic for a given random source state, so tests and
// replays seed a source and get the same item back.
package quiz

import (
	"errors"
	"fmt"

	"github.com/pavelanni/chemquiz/internal/model"
)

// Source is the randomness Generate draws from. *math/rand/v2.Rand
// satisfies it.
type Source interface {
	IntN(n int) int
	Shuffle(n int, swap func(i, j int))
}

var (
	// ErrOptionCountTooSmall is returned when fewer than two options are requested.
	ErrOptionCountTooSmall = errors.New("option count must be at least 2")
	// ErrUnknownMode is returned for a mode outside the known set.
	ErrUnknownMode = errors.New("unknown quiz mode")
)

// NotEnoughCompoundsError reports more requested options than compounds.
type NotEnoughCompoundsError struct {
	Required  int
	Available int
}

func (e *NotEnoughCompoundsError) Error() string {
	return fmt.Sprintf("requires at least %d compounds but only %d provided", e.Required, e.Available)
}

// InsufficientUniqueOptionsError reports too few distinct option labels.
type InsufficientUniqueOptionsError struct {
	Required int
	Unique   int
}

func (e *InsufficientUniqueOptionsError) Error() string {
	return fmt.Sprintf("requires at least %d unique options but only %d available", e.Required, e.Unique)
}

// OptionLabel is the text a compound contributes as an answer option.
func OptionLabel(c model.Compound, mode model.QuizMode) string {
	if mode == model.ModeNameToStructure {
		return c.DisplayStructure()
	}
	return c.DisplayName()
}

// PromptLabel is the question text for a compound.
func PromptLabel(c model.Compound, mode model.QuizMode) string {
	if mode == model.ModeNameToStructure {
		return c.DisplayName()
	}
	return c.DisplayStructure()
}

// Generate picks optionCount compounds with distinct option labels, makes the
// first pick the correct answer and shuffles the options.
func Generate(rng Source, compounds []model.Compound, mode model.QuizMode, optionCount int) (model.QuizItem, error) {
	if optionCount < 2 {
		return model.QuizItem{}, ErrOptionCountTooSmall
	}
	if len(compounds) < optionCount {
		return model.QuizItem{}, &NotEnoughCompoundsError{Required: optionCount, Available: len(compounds)}
	}
	if !mode.Valid() {
		return model.QuizItem{}, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	seen := make(map[string]struct{}, len(compounds))
	unique := make([]int, 0, len(compounds))
	for i, c := range compounds {
		label := OptionLabel(c, mode)
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		unique = append(unique, i)
	}
	if len(unique) < optionCount {
		return model.QuizItem{}, &InsufficientUniqueOptionsError{Required: optionCount, Unique: len(unique)}
	}

	rng.Shuffle(len(unique), func(i, j int) { unique[i], unique[j] = unique[j], unique[i] })
	selected := unique[:optionCount]
	correct := selected[0]

	type option struct {
		index int
		label string
	}
	options := make([]option, len(selected))
	for i, idx := range selected {
		options[i] = option{index: idx, label: OptionLabel(compounds[idx], mode)}
	}
	rng.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })

	item := model.QuizItem{
		Mode:    mode,
		Prompt:  PromptLabel(compounds[correct], mode),
		Options: make([]string, len(options)),
	}
	for i, o := range options {
		item.Options[i] = o.label
		if o.index == correct {
			item.CorrectIndex = i
		}
	}
	return item, nil
}

// IsCorrect reports whether selected is the right answer for item.
func IsCorrect(item model.QuizItem, selected int) bool {
	return selected == item.CorrectIndex
}
