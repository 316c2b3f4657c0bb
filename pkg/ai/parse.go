package ai

import (
	"encoding/json"
	"regexp"
	"strings"
)

// ValidationError means the oracle answered but the answer does not conform
// to the contract. It is deliberately distinct from transport errors so
// callers can tell "the service is down" from "the model went off script".
type ValidationError struct {
	Reason string
	Raw    string
}

func (e *ValidationError) Error() string {
	return "ai: invalid classification response: " + e.Reason
}

var jsonObjectPattern = regexp.MustCompile(`\{[\s\S]*\}`)

// parseImpacts repairs and validates the oracle's raw text: markdown fences
// are stripped, JSON is extracted by pattern search if direct parsing fails,
// and the result is checked strictly against the impact schema. A single
// malformed element rejects the whole list.
func parseImpacts(text string) ([]Impact, error) {
	text = stripFences(text)

	var payload struct {
		Impacts *[]map[string]json.RawMessage `json:"impacts"`
	}
	if err := unmarshalStrict(text, &payload); err != nil {
		// The model sometimes pads the JSON with prose; retry on the first
		// brace-delimited region.
		match := jsonObjectPattern.FindString(text)
		if match == "" {
			return nil, &ValidationError{Reason: "could not extract valid JSON from response", Raw: text}
		}
		if err := unmarshalStrict(match, &payload); err != nil {
			return nil, &ValidationError{Reason: "could not extract valid JSON from response", Raw: text}
		}
	}

	if payload.Impacts == nil {
		return nil, &ValidationError{Reason: "response JSON must contain an 'impacts' list", Raw: text}
	}

	impacts := make([]Impact, 0, len(*payload.Impacts))
	for _, raw := range *payload.Impacts {
		impact, err := validateImpact(raw)
		if err != nil {
			return nil, &ValidationError{Reason: err.Error(), Raw: text}
		}
		impacts = append(impacts, impact)
	}
	return impacts, nil
}

// stripFences unwraps a markdown code fence: a ```json block wins, otherwise
// the text between the first pair of fence markers.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if _, after, found := strings.Cut(text, "```json"); found {
		inner, _, _ := strings.Cut(after, "```")
		return strings.TrimSpace(inner)
	}
	if _, after, found := strings.Cut(text, "```"); found {
		inner, _, _ := strings.Cut(after, "```")
		return strings.TrimSpace(inner)
	}
	return text
}

func unmarshalStrict(text string, v interface{}) error {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	return dec.Decode(v)
}

type impactFieldError string

func (e impactFieldError) Error() string { return string(e) }

func validateImpact(raw map[string]json.RawMessage) (Impact, error) {
	var impact Impact

	sdgRaw, ok := raw["sdg_number"]
	scoreRaw, ok2 := raw["relevance_score"]
	justRaw, ok3 := raw["justification"]
	if !ok || !ok2 || !ok3 {
		return impact, impactFieldError("each impact must contain sdg_number, relevance_score and justification")
	}

	sdg, err := intField(sdgRaw)
	if err != nil || sdg < 1 || sdg > 17 {
		return impact, impactFieldError("sdg_number must be an integer between 1 and 17")
	}

	score, err := intField(scoreRaw)
	if err != nil || score < 0 || score > 100 {
		return impact, impactFieldError("relevance_score must be an integer between 0 and 100")
	}

	if err := json.Unmarshal(justRaw, &impact.Justification); err != nil {
		return impact, impactFieldError("justification must be a string")
	}

	impact.SDGNumber = sdg
	impact.RelevanceScore = score
	return impact, nil
}

// intField rejects floats, strings, and anything else that is not a bare
// JSON integer.
func intField(raw json.RawMessage) (int, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, err
	}
	v, err := n.Int64()
	if err != nil {
		return 0, err
	}
	return int(v), nil
}
