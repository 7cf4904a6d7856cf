package model

import "strings"

// FunctionalGroup is a functional group listed on a compound.
type FunctionalGroup struct {
	NameEN  string `json:"name_en" yaml:"name_en"`
	NameJA  string `json:"name_ja" yaml:"name_ja"`
	Pattern string `json:"pattern" yaml:"pattern"`
}

// Compound is one chemical compound used for quiz questions.
// Optional fields are empty when absent.
type Compound struct {
	IUPACName            string            `json:"iupac_name" yaml:"iupac_name"`
	CommonName           string            `json:"common_name,omitempty" yaml:"common_name,omitempty"`
	LocalName            string            `json:"local_name,omitempty" yaml:"local_name,omitempty"` // Japanese name
	SkeletalFormula      string            `json:"skeletal_formula" yaml:"skeletal_formula"`
	MolecularFormula     string            `json:"molecular_formula" yaml:"molecular_formula"`
	SeriesGeneralFormula string            `json:"series_general_formula,omitempty" yaml:"series_general_formula,omitempty"`
	FunctionalGroups     []FunctionalGroup `json:"functional_groups,omitempty" yaml:"functional_groups,omitempty"`
	Notes                string            `json:"notes,omitempty" yaml:"notes,omitempty"`
	SMILES               string            `json:"smiles,omitempty" yaml:"smiles,omitempty"`
}

// EnglishLabel returns the IUPAC name, followed by the common name in
// parentheses when one is set and differs from it.
func (c Compound) EnglishLabel() string {
	if c.CommonName != "" && c.CommonName != c.IUPACName {
		return c.IUPACName + " (" + c.CommonName + ")"
	}
	return c.IUPACName
}

// DisplayName returns the English label with the local name appended.
func (c Compound) DisplayName() string {
	if c.LocalName == "" {
		return c.EnglishLabel()
	}
	return c.EnglishLabel() + " / " + c.LocalName
}

// DisplayStructure returns "skeletal (molecular)".
func (c Compound) DisplayStructure() string {
	return c.SkeletalFormula + " (" + c.MolecularFormula + ")"
}

func (c Compound) String() string {
	return c.DisplayName() + ": " + c.DisplayStructure()
}

// Clone returns a copy that shares no slices with c.
func (c Compound) Clone() Compound {
	if c.FunctionalGroups != nil {
		c.FunctionalGroups = append([]FunctionalGroup(nil), c.FunctionalGroups...)
	}
	return c
}

// CatalogEntry pairs a compound with its category path.
type CatalogEntry struct {
	Compound   Compound `json:"compound"`
	Categories []string `json:"categories"`
}

// CategoryPath joins the categories with " / ".
func (e CatalogEntry) CategoryPath() string {
	return strings.Join(e.Categories, " / ")
}

// CatalogLeaf is a selectable dataset from a catalog manifest.
type CatalogLeaf struct {
	Path []string `json:"path"`
	File string   `json:"file"`
}
