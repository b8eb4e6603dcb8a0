package db

import (
	"errors"
	"time"
)

// Status is a Kanban board column.
type Status string

const (
	StatusBacklog    Status = "backlog"
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusInReview   Status = "in_review"
	StatusDone       Status = "done"
)

// ValidStatus reports whether s is one of the board columns.
func ValidStatus(s Status) bool {
	switch s {
	case StatusBacklog, StatusTodo, StatusInProgress, StatusInReview, StatusDone:
		return true
	}
	return false
}

// Complexity is the estimated implementation effort of a feature.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// AutomationStatus tracks the lifecycle of a feature's automation run.
type AutomationStatus string

const (
	AutomationIdle    AutomationStatus = "idle"
	AutomationRunning AutomationStatus = "running"
	AutomationSuccess AutomationStatus = "success"
	AutomationFailed  AutomationStatus = "failed"
)

// LogType classifies an automation log entry.
type LogType string

const (
	LogInfo    LogType = "info"
	LogSuccess LogType = "success"
	LogError   LogType = "error"
	LogWarning LogType = "warning"
)

// LogEntry is one line of a feature's automation log.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Step      string    `json:"step"`
	Message   string    `json:"message"`
	Type      LogType   `json:"type"`
}

// Feature is a unit of backlog work tracked through Kanban statuses.
type Feature struct {
	ID                  string           `json:"id"`
	ProjectID           string           `json:"project_id"`
	Title               string           `json:"title"`
	Description         string           `json:"description"`
	Status              Status           `json:"status"`
	Order               int              `json:"order"`
	KeyPoints           []string         `json:"key_points"`
	AcceptanceCriteria  []string         `json:"acceptance_criteria"`
	SuggestedTests      []string         `json:"suggested_tests"`
	Dependencies        []string         `json:"dependencies"`
	EstimatedComplexity Complexity       `json:"estimated_complexity"`
	AutomationStatus    AutomationStatus `json:"automation_status"`
	AutomationLogs      []LogEntry       `json:"automation_logs"`
	BranchName          string           `json:"branch_name,omitempty"`
	PrURL               string           `json:"pr_url,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// Project owns a set of features and points at a working directory on disk.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Path        string    `json:"path"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ErrNotFound is returned when a row lookup or update matches nothing.
var ErrNotFound = errors.New("record not found")

// Store is the persistence boundary over projects, features and settings.
type Store interface {
	Close() error

	CreateProject(p *Project) error
	GetProject(id string) (*Project, error)
	ListProjects() ([]*Project, error)
	DeleteProject(id string) error

	InsertFeature(f *Feature) error
	// InsertFeatures writes the whole batch in one transaction; observers see
	// either none or all of it.
	InsertFeatures(fs []*Feature) error
	GetFeature(id string) (*Feature, error)
	ListFeaturesByProject(projectID string) ([]*Feature, error)
	UpdateFeature(id string, upd FeatureUpdate) error
	DeleteFeature(id string) error
	DeleteFeaturesByProject(projectID string) error

	SetSetting(key, value string) error
	GetSetting(key string) (string, error)
}
