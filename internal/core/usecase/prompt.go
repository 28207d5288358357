package usecase

import (
	"fmt"
	"strings"

	"github.com/okomarov/mrag-assistant/internal/core/domain"
)

// PromptPayload is the multi-modal payload handed to the generation model:
// one templated text block followed by image attachments in rank order.
type PromptPayload struct {
	Text   string
	Images []string
}

const answerPromptTemplate = `You are a helpful assistant. Provide a JSON answer for the question based on the provided context.
Do not rely on internal memory or internal knowledge.
Determine if the question is relevant to the context.
If yes, answer the question using the context and return status = 1 with the answer.
If no, return status = 0 and answer something like:
"I'm sorry, I don't have enough information to answer that."

Conversation so far:
%s

Retrieved document context:
%s

Question: %s

Respond in this JSON format:
{"status":...,"answer":"..."}

Only provide the JSON.`

// BuildPrompt assembles the generation payload. Pure function of its inputs:
// the text block always renders every template section, even with empty
// context, and images pass through untouched in their given order.
func BuildPrompt(history string, texts []domain.ContextText, images []string, question string) PromptPayload {
	var contextBlock strings.Builder
	for _, t := range texts {
		if contextBlock.Len() > 0 {
			contextBlock.WriteString("\n\n")
		}
		contextBlock.WriteString(t.Text)
	}

	payload := PromptPayload{
		Text: fmt.Sprintf(answerPromptTemplate, history, contextBlock.String(), question),
	}
	if len(images) > 0 {
		payload.Images = append(payload.Images, images...)
	}
	return payload
}
