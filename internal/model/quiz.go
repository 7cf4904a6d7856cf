package model

// QuizMode selects which side of a compound is the prompt and which the answers.
type QuizMode string

const (
	// ModeNameToStructure prompts with a name and asks for the structure.
	ModeNameToStructure QuizMode = "name_to_structure"
	// ModeStructureToName prompts with a structure and asks for the name.
	ModeStructureToName QuizMode = "structure_to_name"
)

// Valid reports whether m is a known mode.
func (m QuizMode) Valid() bool {
	return m == ModeNameToStructure || m == ModeStructureToName
}

// ParseQuizMode accepts the canonical names plus the short forms used on the
// command line ("name", "structure").
func ParseQuizMode(s string) (QuizMode, bool) {
	switch s {
	case string(ModeNameToStructure), "name", "n2s":
		return ModeNameToStructure, true
	case string(ModeStructureToName), "structure", "s2n":
		return ModeStructureToName, true
	}
	return "", false
}

// QuizItem is one generated multiple-choice question.
type QuizItem struct {
	Mode         QuizMode `json:"mode"`
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
}

// Config holds runtime parameters set via CLI flags.
type Config struct {
	OptionCount    int      // answer options per quiz
	Mode           QuizMode // default mode when a request does not name one
	Lang           string   // default UI language
	ExplainVariant string   // explanation prompt variant (brief, standard, detailed)
}
