package db

import (
	"encoding/json"
	"fmt"
	"time"
)

// FeatureUpdate carries the subset of feature fields to persist. Nil fields
// are left untouched. Columns come from an explicit mapping rather than
// reflection over arbitrary keys.
type FeatureUpdate struct {
	Title               *string
	Description         *string
	Status              *Status
	Order               *int
	KeyPoints           *[]string
	AcceptanceCriteria  *[]string
	SuggestedTests      *[]string
	Dependencies        *[]string
	EstimatedComplexity *Complexity
	AutomationStatus    *AutomationStatus
	AutomationLogs      *[]LogEntry
	BranchName          *string
	PrURL               *string
}

// assignments renders the update as column/value pairs, always including
// updated_at. The column names are the single source of truth for what an
// update may touch.
func (u FeatureUpdate) assignments(now time.Time) ([]string, []any, error) {
	var cols []string
	var vals []any

	add := func(col string, val any) {
		cols = append(cols, col)
		vals = append(vals, val)
	}
	addJSON := func(col string, val any) error {
		encoded, err := json.Marshal(val)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", col, err)
		}
		add(col, string(encoded))
		return nil
	}

	if u.Title != nil {
		add("title", *u.Title)
	}
	if u.Description != nil {
		add("description", *u.Description)
	}
	if u.Status != nil {
		add("status", string(*u.Status))
	}
	if u.Order != nil {
		add("sort_order", *u.Order)
	}
	if u.KeyPoints != nil {
		if err := addJSON("key_points", *u.KeyPoints); err != nil {
			return nil, nil, err
		}
	}
	if u.AcceptanceCriteria != nil {
		if err := addJSON("acceptance_criteria", *u.AcceptanceCriteria); err != nil {
			return nil, nil, err
		}
	}
	if u.SuggestedTests != nil {
		if err := addJSON("suggested_tests", *u.SuggestedTests); err != nil {
			return nil, nil, err
		}
	}
	if u.Dependencies != nil {
		if err := addJSON("dependencies", *u.Dependencies); err != nil {
			return nil, nil, err
		}
	}
	if u.EstimatedComplexity != nil {
		add("estimated_complexity", string(*u.EstimatedComplexity))
	}
	if u.AutomationStatus != nil {
		add("automation_status", string(*u.AutomationStatus))
	}
	if u.AutomationLogs != nil {
		if err := addJSON("automation_logs", *u.AutomationLogs); err != nil {
			return nil, nil, err
		}
	}
	if u.BranchName != nil {
		add("branch_name", *u.BranchName)
	}
	if u.PrURL != nil {
		add("pr_url", *u.PrURL)
	}

	add("updated_at", now.UTC().Format(time.RFC3339Nano))
	return cols, vals, nil
}
