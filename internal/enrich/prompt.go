package enrich

import (
	"fmt"

	"memoryatlas/internal/textutil"
)

// DefaultMaxTranscriptChars caps the transcript length sent to the model.
const DefaultMaxTranscriptChars = 15000

// TruncationMarker is appended to transcripts cut at the character cap.
const TruncationMarker = "\n\n[...transcript truncated...]"

const promptTemplate = `Analyze this voice memo transcript and extract:

1. **Summary**: 2-3 sentence summary of the main content
2. **Topics**: List of key topics/themes (comma-separated, max 5)
3. **People**: Names of people mentioned (comma-separated, or "none" if none)
4. **Sentiment**: Overall emotional tone (positive/negative/neutral/mixed)

Transcript:
%s

Respond ONLY with valid JSON in this exact format:
{
  "summary": "...",
  "topics": "topic1, topic2, topic3",
  "people": "Person Name, Another Person",
  "sentiment": "positive"
}`

// BuildPrompt embeds transcript, cut to maxChars runes, in the extraction prompt.
func BuildPrompt(transcript string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxTranscriptChars
	}
	text, _ := textutil.TruncateRunes(transcript, maxChars, TruncationMarker)
	return fmt.Sprintf(promptTemplate, text)
}
