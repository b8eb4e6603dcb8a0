package prompt

import (
	"errors"
	"strings"
	"testing"

	"github.com/ASHUVINAYAK1/project-maker/internal/db"
)

const featureJSON = `{
	"features": [
		{
			"title": "User registration",
			"description": "Sign up with email",
			"keyPoints": ["hash passwords", 42, "validate email"],
			"acceptanceCriteria": ["account created"],
			"suggestedTests": ["duplicate email rejected"],
			"dependencies": [],
			"estimatedComplexity": "high"
		},
		{
			"title": "Landing page",
			"estimatedComplexity": "enormous"
		}
	]
}`

func TestParseFeatureGenerationResponse(t *testing.T) {
	features, err := ParseFeatureGenerationResponse(featureJSON)
	if err != nil {
		t.Fatalf("ParseFeatureGenerationResponse failed: %v", err)
	}
	if len(features) != 2 {
		t.Fatalf("Expected 2 features, got %d", len(features))
	}

	first := features[0]
	if first.Title != "User registration" {
		t.Errorf("Unexpected title: %s", first.Title)
	}
	if len(first.KeyPoints) != 2 {
		t.Errorf("Expected non-string key point filtered out, got %v", first.KeyPoints)
	}
	if first.EstimatedComplexity != db.ComplexityHigh {
		t.Errorf("Expected high complexity, got %s", first.EstimatedComplexity)
	}

	second := features[1]
	if second.EstimatedComplexity != db.ComplexityMedium {
		t.Errorf("Invalid complexity should coerce to medium, got %s", second.EstimatedComplexity)
	}
	if second.KeyPoints == nil || len(second.KeyPoints) != 0 {
		t.Errorf("Missing list field should coerce to empty, got %v", second.KeyPoints)
	}
}

func TestParseFeatureGenerationResponse_FencedEqualsUnfenced(t *testing.T) {
	unfenced, err := ParseFeatureGenerationResponse(featureJSON)
	if err != nil {
		t.Fatalf("unfenced parse failed: %v", err)
	}

	for _, wrapped := range []string{
		"```json\n" + featureJSON + "\n```",
		"```\n" + featureJSON + "\n```",
		"Here is your backlog:\n```json\n" + featureJSON + "\n```\nLet me know!",
	} {
		fenced, err := ParseFeatureGenerationResponse(wrapped)
		if err != nil {
			t.Fatalf("fenced parse failed: %v", err)
		}
		if len(fenced) != len(unfenced) || fenced[0].Title != unfenced[0].Title {
			t.Errorf("Fenced result differs from unfenced")
		}
	}
}

func TestParseFeatureGenerationResponse_Errors(t *testing.T) {
	cases := map[string]string{
		"not json":             "the model apologizes",
		"missing features":     `{"items": []}`,
		"features not a list":  `{"features": "lots"}`,
		"element without name": `{"features": [{"description": "no title"}]}`,
		"blank title":          `{"features": [{"title": "   "}]}`,
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseFeatureGenerationResponse(input)
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("Expected ParseError, got %v", err)
			}
			if parseErr.Raw != input {
				t.Errorf("ParseError should carry the raw response")
			}
		})
	}
}

func TestParseFeatureGenerationResponse_TitleClamped(t *testing.T) {
	long := strings.Repeat("x", 150)
	features, err := ParseFeatureGenerationResponse(`{"features": [{"title": "` + long + `"}]}`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got := len([]rune(features[0].Title)); got != 100 {
		t.Errorf("Expected title clamped to 100 chars, got %d", got)
	}
}

func TestParseAutomationPlanResponse(t *testing.T) {
	raw := "```json\n" + `[
		{"step": "Install", "command": "npm install lucide-react", "description": "Install icon lib"},
		{"step": "Skip me", "command": "   "},
		{"command": "npm test"}
	]` + "\n```"

	steps := ParseAutomationPlanResponse(raw)
	if len(steps) != 2 {
		t.Fatalf("Expected 2 steps, got %d", len(steps))
	}
	if steps[0].Command != "npm install lucide-react" {
		t.Errorf("Unexpected command: %s", steps[0].Command)
	}
	if steps[1].Step != "npm test" {
		t.Errorf("Nameless step should fall back to its command, got %q", steps[1].Step)
	}
}

func TestParseAutomationPlanResponse_EmptyOnFailure(t *testing.T) {
	for _, input := range []string{"no json here", `{"steps": []}`, ""} {
		steps := ParseAutomationPlanResponse(input)
		if steps == nil || len(steps) != 0 {
			t.Errorf("Expected empty plan for %q, got %v", input, steps)
		}
	}
}

func TestBuildPrompts(t *testing.T) {
	p, err := BuildFeatureGenerationPrompt("TodoApp", "A simple todo list with reminders")
	if err != nil {
		t.Fatalf("BuildFeatureGenerationPrompt failed: %v", err)
	}
	if !strings.Contains(p, "TodoApp") || !strings.Contains(p, "reminders") {
		t.Errorf("Prompt missing injected values")
	}
	if !strings.Contains(p, "between 5 and 12") {
		t.Errorf("Prompt missing count bounds")
	}

	plan, err := BuildAutomationPlanPrompt("/tmp/todoapp", "Add login", "Login form", []string{"hash passwords"})
	if err != nil {
		t.Fatalf("BuildAutomationPlanPrompt failed: %v", err)
	}
	for _, want := range []string{"/tmp/todoapp", "Add login", "- hash passwords"} {
		if !strings.Contains(plan, want) {
			t.Errorf("Plan prompt missing %q", want)
		}
	}
}
