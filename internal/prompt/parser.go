package prompt

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/ASHUVINAYAK1/project-maker/internal/db"
)

// GeneratedFeature is one normalized element of a feature generation response.
type GeneratedFeature struct {
	Title               string        `json:"title"`
	Description         string        `json:"description"`
	KeyPoints           []string      `json:"keyPoints"`
	AcceptanceCriteria  []string      `json:"acceptanceCriteria"`
	SuggestedTests      []string      `json:"suggestedTests"`
	Dependencies        []string      `json:"dependencies"`
	EstimatedComplexity db.Complexity `json:"estimatedComplexity"`
}

// PlanStep is one entry of an automation plan.
type PlanStep struct {
	Step        string `json:"step"`
	Command     string `json:"command"`
	Description string `json:"description"`
}

// ParseError reports malformed or structurally invalid model output. Raw
// carries the original response for diagnostics.
type ParseError struct {
	Reason string
	Raw    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse model response: %s", e.Reason)
}

const maxTitleLength = 100

var (
	jsonFenceRegex = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	anyFenceRegex  = regexp.MustCompile("(?s)```\\s*(.*?)\\s*```")
)

// cleanJSON strips a Markdown code fence wrapper if present and trims the
// result. Models reliably wrap JSON in fences or prose; tolerating that here
// is a load-bearing contract for every parser below.
func cleanJSON(input string) string {
	if match := jsonFenceRegex.FindStringSubmatch(input); len(match) > 1 {
		return strings.TrimSpace(match[1])
	}
	if match := anyFenceRegex.FindStringSubmatch(input); len(match) > 1 {
		return strings.TrimSpace(match[1])
	}
	return strings.TrimSpace(input)
}

// ParseFeatureGenerationResponse parses a feature generation response into
// normalized features. It returns a *ParseError when the top-level `features`
// key is missing or not an array, or when any element lacks a non-empty title.
func ParseFeatureGenerationResponse(raw string) ([]GeneratedFeature, error) {
	cleaned := cleanJSON(raw)

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &envelope); err != nil {
		return nil, &ParseError{Reason: err.Error(), Raw: raw}
	}

	featuresRaw, ok := envelope["features"]
	if !ok {
		return nil, &ParseError{Reason: "missing top-level features key", Raw: raw}
	}

	var elements []map[string]any
	if err := json.Unmarshal(featuresRaw, &elements); err != nil {
		return nil, &ParseError{Reason: "features is not an array of objects", Raw: raw}
	}

	features := make([]GeneratedFeature, 0, len(elements))
	for i, el := range elements {
		title, _ := el["title"].(string)
		title = strings.TrimSpace(title)
		if title == "" {
			return nil, &ParseError{Reason: fmt.Sprintf("feature %d has no title", i), Raw: raw}
		}
		if runes := []rune(title); len(runes) > maxTitleLength {
			title = string(runes[:maxTitleLength])
		}

		description, _ := el["description"].(string)

		features = append(features, GeneratedFeature{
			Title:               title,
			Description:         description,
			KeyPoints:           stringList(el["keyPoints"]),
			AcceptanceCriteria:  stringList(el["acceptanceCriteria"]),
			SuggestedTests:      stringList(el["suggestedTests"]),
			Dependencies:        stringList(el["dependencies"]),
			EstimatedComplexity: coerceComplexity(el["estimatedComplexity"]),
		})
	}

	return features, nil
}

// stringList coerces an arbitrary decoded value into a []string, dropping
// non-string entries. Anything that is not a list becomes empty.
func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func coerceComplexity(v any) db.Complexity {
	s, _ := v.(string)
	switch c := db.Complexity(s); c {
	case db.ComplexityLow, db.ComplexityMedium, db.ComplexityHigh:
		return c
	}
	return db.ComplexityMedium
}

// ParseAutomationPlanResponse parses an automation plan response into ordered
// steps. Any parse failure yields an empty plan, never an error; the caller
// treats an empty plan as its own failure mode.
func ParseAutomationPlanResponse(raw string) []PlanStep {
	cleaned := cleanJSON(raw)

	var steps []PlanStep
	if err := json.Unmarshal([]byte(cleaned), &steps); err != nil {
		return []PlanStep{}
	}

	out := make([]PlanStep, 0, len(steps))
	for _, step := range steps {
		if strings.TrimSpace(step.Command) == "" {
			continue
		}
		if strings.TrimSpace(step.Step) == "" {
			step.Step = step.Command
		}
		out = append(out, step)
	}
	return out
}
