package prompt

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

//go:embed templates/*.md
var templateFS embed.FS

// List of available prompt templates
const (
	FeatureGeneration = "feature_generation"
	AutomationPlan    = "automation_plan"
)

// GetPrompt loads a template and injects variables.
// It checks PROJECTMAKER_PROMPTS_DIR first for overrides.
func GetPrompt(name string, vars map[string]string) (string, error) {
	var content []byte
	var err error

	// 1. Check override directory
	overrideDir := os.Getenv("PROJECTMAKER_PROMPTS_DIR")
	if overrideDir != "" {
		localPath := filepath.Join(overrideDir, name+".md")
		if c, e := os.ReadFile(localPath); e == nil {
			content = c
		}
	}

	// 2. Fallback to embedded
	if len(content) == 0 {
		templatePath := filepath.Join("templates", name+".md")
		content, err = templateFS.ReadFile(templatePath)
		if err != nil {
			return "", fmt.Errorf("failed to read prompt template %s: %w", name, err)
		}
	}

	prompt := string(content)
	for k, v := range vars {
		placeholder := fmt.Sprintf("{%s}", k)
		prompt = strings.ReplaceAll(prompt, placeholder, v)
	}

	return prompt, nil
}

// BuildFeatureGenerationPrompt renders the feature generation prompt for a
// project name and free-text description.
func BuildFeatureGenerationPrompt(projectName, description string) (string, error) {
	return GetPrompt(FeatureGeneration, map[string]string{
		"project_name": projectName,
		"description":  description,
	})
}

// BuildAutomationPlanPrompt renders the automation planning prompt for one
// feature. keyPoints are rendered as a bulleted list.
func BuildAutomationPlanPrompt(projectPath, title, description string, keyPoints []string) (string, error) {
	points := "- (none)"
	if len(keyPoints) > 0 {
		var b strings.Builder
		for i, p := range keyPoints {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString("- " + p)
		}
		points = b.String()
	}

	return GetPrompt(AutomationPlan, map[string]string{
		"project_path": projectPath,
		"title":        title,
		"description":  description,
		"key_points":   points,
	})
}
