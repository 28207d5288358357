package ollama

import "fmt"

const imageSummaryPrompt = `Describe the image in detail.`

func buildTextSummaryPrompt(content string) string {
	const maxSnippet = 8000
	if len(content) > maxSnippet {
		content = content[:maxSnippet]
	}

	return fmt.Sprintf(`You are an assistant tasked with summarizing tables and text.
Give a concise summary of the table or text.

Respond only with the summary, no additional comment.
Do not start your message by saying "Here is a summary" or anything like that.
Just give the summary as it is.

Table or text chunk: %s`, content)
}

func buildExpansionPrompt(question string) string {
	return fmt.Sprintf(`You are a helpful assistant that rewrites a user query to improve search accuracy in a document retrieval system.

Given an input query, you have two tasks.
Task 1: decompose a complex or multi-part question into simpler, atomic sub-questions that can be answered individually.
Make sure each sub-question:
- Targets a single fact or concept.
- Preserves the intent and context of the original query.
- Can be used independently to search for relevant documents.
Task 2: generate alternative phrasings or related queries that capture similar intent, using different vocabulary or structure. Do not change the meaning.

Original query:
"%s"

Return only a JSON array containing 5-6 query strings, no other text.`, question)
}
