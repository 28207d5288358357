package domain

// Gate statuses reported by the generation model.
const (
	GateIrrelevant = 0
	GateAnswered   = 1
)

// GatedAnswer is the parsed structured response of the generation model.
// Status 0 means the question could not be answered from the retrieved
// context; in that case no references are ever surfaced to the caller and
// no chat turn is recorded.
type GatedAnswer struct {
	Status int    `json:"status"`
	Answer string `json:"answer"`
}

func (a GatedAnswer) Relevant() bool {
	return a.Status == GateAnswered
}

// AskResult is the caller-facing response of one question-answering turn.
type AskResult struct {
	Answer        string        `json:"answer"`
	ContextTexts  []ContextText `json:"context_texts"`
	ContextImages []string      `json:"context_images"`
}
