package enrich

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"

	"memoryatlas/internal/assets"
	"memoryatlas/internal/services"
	"memoryatlas/internal/services/llm"
)

// ErrMalformedResponse marks a model reply that does not hold the expected object.
var ErrMalformedResponse = errors.Mark(errors.New("malformed enrichment response"), services.ErrValidation)

var requiredKeys = []string{"summary", "topics", "people", "sentiment"}

// ParseEnrichment extracts the enrichment object from a model reply. The
// object spans the first '{' to the last '}' so surrounding prose is ignored.
// Topics and people may be a string or a list of strings.
func ParseEnrichment(raw string) (assets.Enrichment, error) {
	var out assets.Enrichment

	object := llm.ExtractJSONObject(raw)
	if object == "" {
		return out, errors.Wrap(ErrMalformedResponse, "no JSON object in response")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(object), &fields); err != nil {
		return out, errors.Wrapf(ErrMalformedResponse, "decode response: %v", err)
	}
	for _, key := range requiredKeys {
		if _, ok := fields[key]; !ok {
			return out, errors.Wrapf(ErrMalformedResponse, "missing key %q", key)
		}
	}

	var err error
	if out.Summary, err = textField(fields["summary"]); err != nil {
		return out, errors.Wrapf(ErrMalformedResponse, "summary: %v", err)
	}
	if out.Summary == "" {
		return out, errors.Wrap(ErrMalformedResponse, "summary is empty")
	}
	if out.Topics, err = listField(fields["topics"]); err != nil {
		return out, errors.Wrapf(ErrMalformedResponse, "topics: %v", err)
	}
	if out.People, err = listField(fields["people"]); err != nil {
		return out, errors.Wrapf(ErrMalformedResponse, "people: %v", err)
	}
	if out.Sentiment, err = textField(fields["sentiment"]); err != nil {
		return out, errors.Wrapf(ErrMalformedResponse, "sentiment: %v", err)
	}
	out.Sentiment = strings.ToLower(out.Sentiment)
	return out, nil
}

func textField(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", nil
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", errors.New("expected a string")
	}
	return strings.TrimSpace(value), nil
}

func listField(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return strings.TrimSpace(single), nil
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err != nil {
		return "", errors.New("expected a string or a list of strings")
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			parts = append(parts, item)
		}
	}
	return strings.Join(parts, ", "), nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || strings.TrimSpace(string(raw)) == "null"
}
