package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"

	"github.com/pavelanni/chemquiz/internal/model"
	"github.com/pavelanni/chemquiz/internal/quiz"
)

// Templates holds the built-in explanation prompt templates.
//
//go:embed templates/*.txt
var Templates embed.FS

var systemInstructionsRegex = regexp.MustCompile(`(?i)</?\s*system-instructions\b[^>]*>`)

const maxFieldRunes = 2000

// PromptVariant represents an explanation prompt variant.
type PromptVariant string

const (
	// PromptBrief asks for a one or two sentence explanation.
	PromptBrief PromptVariant = "brief"
	// PromptStandard is the default explanation variant.
	PromptStandard PromptVariant = "standard"
	// PromptDetailed asks for a step-by-step walkthrough.
	PromptDetailed PromptVariant = "detailed"
)

var validVariants = map[PromptVariant]bool{
	PromptBrief:    true,
	PromptStandard: true,
	PromptDetailed: true,
}

var (
	loadOnce         sync.Once
	loadErr          error
	explainTemplates map[PromptVariant]*template.Template
)

// IsValidVariant checks if a prompt variant name is valid.
func IsValidVariant(v string) bool {
	return validVariants[PromptVariant(v)]
}

// ExplainInput is everything known about one answered quiz item.
type ExplainInput struct {
	Item     model.QuizItem
	Selected int
	// Compound is the compound the prompt was built from, when known.
	Compound *model.Compound
	Language string
}

// ExplainData holds template data for explanation prompts.
type ExplainData struct {
	ModeLabel string
	Prompt    string
	Options   []string
	Correct   string
	Selected  string
	IsCorrect bool
	Facts     string
	Language  string
}

// Load loads prompt templates from fsys.
// It uses sync.Once to ensure templates are loaded only once.
func Load(fsys fs.FS) error {
	loadOnce.Do(func() {
		explainTemplates = make(map[PromptVariant]*template.Template)

		variants := []PromptVariant{PromptBrief, PromptStandard, PromptDetailed}

		for _, v := range variants {
			file := "templates/explain_" + string(v) + ".txt"

			content, err := fs.ReadFile(fsys, file)
			if err != nil {
				loadErr = errors.New("failed to read prompt file " + file + ": " + err.Error())
				return
			}

			tmpl, err := template.New("explain").Parse(string(content))
			if err != nil {
				loadErr = errors.New("failed to parse prompt template " + file + ": " + err.Error())
				return
			}
			explainTemplates[v] = tmpl
		}
	})
	return loadErr
}

// BuildExplainPrompt builds an explanation prompt using the specified variant.
func BuildExplainPrompt(variant PromptVariant, in ExplainInput) (string, error) {
	if explainTemplates == nil {
		return "", errors.New("templates not initialized: call Load first")
	}
	tmpl, ok := explainTemplates[variant]
	if !ok {
		if loadErr != nil {
			return "", fmt.Errorf("templates load failed: %w", loadErr)
		}
		return "", errors.New("invalid prompt variant: " + string(variant))
	}

	item := in.Item
	if item.CorrectIndex < 0 || item.CorrectIndex >= len(item.Options) {
		return "", fmt.Errorf("correct index %d out of range", item.CorrectIndex)
	}
	if in.Selected < 0 || in.Selected >= len(item.Options) {
		return "", fmt.Errorf("selected index %d out of range", in.Selected)
	}

	options := make([]string, len(item.Options))
	for i, o := range item.Options {
		options[i] = sanitizeField(o)
	}

	lang := in.Language
	if lang == "" {
		lang = "en"
	}

	data := ExplainData{
		ModeLabel: modeLabel(item.Mode),
		Prompt:    sanitizeField(item.Prompt),
		Options:   options,
		Correct:   options[item.CorrectIndex],
		Selected:  options[in.Selected],
		IsCorrect: quiz.IsCorrect(item, in.Selected),
		Language:  lang,
	}
	if in.Compound != nil {
		data.Facts = sanitizeField(compoundFacts(*in.Compound))
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func modeLabel(m model.QuizMode) string {
	switch m {
	case model.ModeNameToStructure:
		return "given the name, pick the structure"
	case model.ModeStructureToName:
		return "given the structure, pick the name"
	}
	return string(m)
}

func compoundFacts(c model.Compound) string {
	var sb strings.Builder
	sb.WriteString("- IUPAC name: " + c.IUPACName + "\n")
	if c.CommonName != "" {
		sb.WriteString("- Common name: " + c.CommonName + "\n")
	}
	sb.WriteString("- Skeletal formula: " + c.SkeletalFormula + "\n")
	sb.WriteString("- Molecular formula: " + c.MolecularFormula + "\n")
	if c.SeriesGeneralFormula != "" {
		sb.WriteString("- Homologous series: " + c.SeriesGeneralFormula + "\n")
	}
	for _, g := range c.FunctionalGroups {
		sb.WriteString("- Functional group: " + g.NameEN + " (" + g.Pattern + ")\n")
	}
	if c.Notes != "" {
		sb.WriteString("- Notes: " + c.Notes + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func sanitizeField(s string) string {
	s = systemInstructionsRegex.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	if utf8.RuneCountInString(s) > maxFieldRunes {
		runes := []rune(s)
		s = string(runes[:maxFieldRunes]) + " [truncated]"
	}

	return s
}
