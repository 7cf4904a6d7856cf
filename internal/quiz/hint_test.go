package quiz

import (
	"testing"

	"github.com/pavelanni/chemquiz/internal/model"
)

func TestHint(t *testing.T) {
	tests := []struct {
		name     string
		compound model.Compound
		want     string
		wantOK   bool
	}{
		{
			name:     "series formula first",
			compound: model.Compound{SeriesGeneralFormula: "CnH2n+2", Notes: "ignored", MolecularFormula: "C6H14"},
			want:     "Series formula: CnH2n+2",
			wantOK:   true,
		},
		{
			name: "functional groups",
			compound: model.Compound{
				FunctionalGroups: []model.FunctionalGroup{
					{NameEN: "Hydroxyl", Pattern: "-OH"},
					{NameEN: "Carboxyl", Pattern: "-COOH"},
				},
				MolecularFormula: "C2H4O3",
			},
			want:   "Functional groups: Hydroxyl (-OH), Carboxyl (-COOH)",
			wantOK: true,
		},
		{
			name:     "notes",
			compound: model.Compound{Notes: "Used as a solvent", MolecularFormula: "C3H6O"},
			want:     "Used as a solvent",
			wantOK:   true,
		},
		{
			name:     "molecular formula",
			compound: model.Compound{MolecularFormula: "NaCl"},
			want:     "Molecular formula: NaCl",
			wantOK:   true,
		},
		{
			name:     "nothing",
			compound: model.Compound{IUPACName: "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Hint(tt.compound)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Hint() = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestFindPromptCompound(t *testing.T) {
	compounds := sampleCompounds()

	c, ok := FindPromptCompound(compounds, model.QuizItem{Mode: model.ModeStructureToName, Prompt: "C6H6 (C6H6)"})
	if !ok || c.IUPACName != "benzene" {
		t.Errorf("structure lookup = %q, %v", c.IUPACName, ok)
	}

	c, ok = FindPromptCompound(compounds, model.QuizItem{Mode: model.ModeNameToStructure, Prompt: "propanone (acetone) / アセトン"})
	if !ok || c.IUPACName != "propanone" {
		t.Errorf("name lookup = %q, %v", c.IUPACName, ok)
	}

	if _, ok := FindPromptCompound(compounds, model.QuizItem{Mode: model.ModeNameToStructure, Prompt: "C6H6 (C6H6)"}); ok {
		t.Error("structure text should not match a name prompt")
	}
}
