package rag

import (
	"fmt"
	"strings"

	"github.com/lexhaven/lexrag/internal/qdrant"
)

// systemPrompt frames the model as a legal analyst and sets the citation
// contract for retrieved chunks.
const systemPrompt = `You are a highly specialized legal analyst. Your user is a local citizen.
You will be given THREE pieces of information:
1. A USER'S QUESTION.
2. The full text of a USER'S DOCUMENT (if provided).
3. Several relevant LEGAL CHUNKS from a permanent knowledge base of official laws and regulations.

Your task is to synthesize all this information to answer the user's question.
- First, analyze the USER'S DOCUMENT (if it exists).
- Then, use the LEGAL CHUNKS to provide the official legal context and definitions.
- Finally, answer the USER'S QUESTION by connecting the user's document to the law.
- You MUST cite the legal chunks you use, like [Source: filename, Page: X, Para: Y].
- If the legal chunks are not relevant or don't add value, state that you can only analyze the user's document (or only the question if no document was provided).
- Your tone should be formal, professional, and helpful.
`

// noChunksNotice is substituted for the chunk list when retrieval returns
// nothing above the score threshold.
const noChunksNotice = "No relevant legal chunks were found in the knowledge base for this context."

// ComposeQuery builds the text that gets embedded for retrieval. Including
// the uploaded document's text steers the search toward laws relevant to
// that document, not just the bare question.
func ComposeQuery(userQuery, documentText string) string {
	if documentText != "" {
		return fmt.Sprintf("USER'S DOCUMENT:\n%s\n\nUSER'S QUESTION:\n%s", documentText, userQuery)
	}
	return fmt.Sprintf("USER'S QUESTION ONLY:\n%s", userQuery)
}

// RenderChunks formats retrieval hits as numbered, citation-headed blocks
// in descending score order, or the no-results notice when empty.
func RenderChunks(results []*qdrant.ScoredPoint) string {
	if len(results) == 0 {
		return noChunksNotice
	}

	var b strings.Builder
	for i, result := range results {
		cite := fmt.Sprintf("[Source: %s, Page: %s, Para: %s]",
			payloadString(result.Payload, qdrant.FieldFilename),
			payloadString(result.Payload, qdrant.FieldPageNumber),
			payloadString(result.Payload, qdrant.FieldParagraphNumber),
		)
		fmt.Fprintf(&b, "\n--- Legal Chunk %d %s ---\n", i+1, cite)

		text := payloadString(result.Payload, qdrant.FieldTextChunk)
		if text == "N/A" {
			text = "No text available."
		}
		b.WriteString(text)
		b.WriteByte('\n')
	}
	return b.String()
}

// BuildPrompt assembles the final completion prompt from the question, the
// parsed upload (empty when none) and the rendered chunk section.
func BuildPrompt(userQuery, documentText, chunksText string) string {
	if documentText == "" {
		documentText = "[No user document provided]"
	}

	return fmt.Sprintf(`%s

--- USER'S QUESTION ---
%s

--- USER'S DOCUMENT TEXT ---
%s

--- RELEVANT LEGAL CHUNKS FROM KNOWLEDGE BASE ---
%s

--- FINAL ANALYSIS ---
`, systemPrompt, userQuery, documentText, chunksText)
}

// payloadString renders a payload field for the prompt. Integer fields come
// back from the index as int64; anything absent renders as N/A so a missing
// field never breaks the citation format.
func payloadString(payload map[string]interface{}, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return "N/A"
	}
	switch t := v.(type) {
	case string:
		if t == "" {
			return "N/A"
		}
		return t
	default:
		return fmt.Sprintf("%v", v)
	}
}
