package openai

import (
	"fmt"
	"strings"
)

const defaultImagePrompt = `Describe this image in detail for a search index. Cover the subjects,
setting, visible text, colors, and composition. Write plain prose with no
preamble and no markdown formatting. If the image contains readable text,
transcribe it verbatim at the end under a single line reading "Text:".`

const defaultPdfPrompt = `Extract the full text content of this document. Preserve headings,
paragraph breaks, and list structure as plain text. Transcribe tables
row by row. Do not summarize, do not add commentary, and do not use
markdown formatting. Output only the document text.`

const rerankResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "ranking": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "index": {
            "type": "integer",
            "minimum": 0
          },
          "score": {
            "type": "number",
            "minimum": 0,
            "maximum": 1
          }
        },
        "required": ["index", "score"],
        "additionalProperties": false
      }
    }
  },
  "required": ["ranking"],
  "additionalProperties": false
}`

const rerankPromptTemplate = `You are a relevance ranker. Given a query and a numbered list of documents,
order the documents from most to least relevant to the query and return the
result as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- "index" refers to the zero-based document number shown in the input.
- Every document index must appear exactly once in the ranking.
- "score" is the document's relevance to the query from 0 (irrelevant) to 1 (directly answers it).
- Judge relevance only from the document text. Do not invent content.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.`

// buildRerankSystemPrompt creates the reranking system prompt with the
// response schema embedded.
func buildRerankSystemPrompt() string {
	return fmt.Sprintf(rerankPromptTemplate, rerankResponseSchema)
}

// buildRerankUserPrompt formats the query and candidate documents into the
// numbered list the ranking prompt refers to.
func buildRerankUserPrompt(query string, documents []string) string {
	var b strings.Builder
	b.WriteString("Query: ")
	b.WriteString(query)
	b.WriteString("\n\nDocuments:\n")
	for i, doc := range documents {
		fmt.Fprintf(&b, "[%d] %s\n", i, doc)
	}
	return b.String()
}
