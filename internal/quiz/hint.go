package quiz

import (
	"strings"

	"github.com/pavelanni/chemquiz/internal/model"
)

// FindPromptCompound returns the compound whose prompt text matches item.
func FindPromptCompound(compounds []model.Compound, item model.QuizItem) (model.Compound, bool) {
	for _, c := range compounds {
		if PromptLabel(c, item.Mode) == item.Prompt {
			return c, true
		}
	}
	return model.Compound{}, false
}

// Hint returns a short clue for c, preferring the series formula, then
// functional groups, then notes, then the molecular formula.
func Hint(c model.Compound) (string, bool) {
	switch {
	case c.SeriesGeneralFormula != "":
		return "Series formula: " + c.SeriesGeneralFormula, true
	case len(c.FunctionalGroups) > 0:
		groups := make([]string, len(c.FunctionalGroups))
		for i, g := range c.FunctionalGroups {
			groups[i] = g.NameEN + " (" + g.Pattern + ")"
		}
		return "Functional groups: " + strings.Join(groups, ", "), true
	case c.Notes != "":
		return c.Notes, true
	case c.MolecularFormula != "":
		return "Molecular formula: " + c.MolecularFormula, true
	}
	return "", false
}
