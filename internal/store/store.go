// Package store is the authoritative model of projects and features on the
// Kanban board. It keeps an in-memory cache over the persistence boundary;
// every mutation persists first and touches the cache only on success, so a
// failed write never leaves the two views diverged.
package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ASHUVINAYAK1/project-maker/internal/db"
	"github.com/ASHUVINAYAK1/project-maker/internal/prompt"
	"github.com/ASHUVINAYAK1/project-maker/internal/telemetry"
)

// FeatureInput carries the caller-supplied fields for a manual feature create.
type FeatureInput struct {
	Title               string
	Description         string
	KeyPoints           []string
	AcceptanceCriteria  []string
	SuggestedTests      []string
	Dependencies        []string
	EstimatedComplexity db.Complexity
}

// FeatureStore exposes CRUD, reordering and automation-field mutation over
// features. It is safe for concurrent use.
type FeatureStore struct {
	mu       sync.RWMutex
	store    db.Store
	features map[string]*db.Feature

	// writeMu serializes compound read-then-write mutations (order
	// assignment, log append) end to end. Two callers interleaving between
	// the snapshot and the persist would otherwise overwrite each other's
	// writes: concurrent log appends must all survive, and concurrent
	// creates must not hand out the same order.
	writeMu sync.Mutex
}

// NewFeatureStore wraps a persistence backend.
func NewFeatureStore(store db.Store) *FeatureStore {
	return &FeatureStore{
		store:    store,
		features: make(map[string]*db.Feature),
	}
}

func cloneFeature(f *db.Feature) *db.Feature {
	c := *f
	c.KeyPoints = append([]string(nil), f.KeyPoints...)
	c.AcceptanceCriteria = append([]string(nil), f.AcceptanceCriteria...)
	c.SuggestedTests = append([]string(nil), f.SuggestedTests...)
	c.Dependencies = append([]string(nil), f.Dependencies...)
	c.AutomationLogs = append([]db.LogEntry(nil), f.AutomationLogs...)
	return &c
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// --- projects ---

// CreateProject registers a new project rooted at path.
func (s *FeatureStore) CreateProject(name, description, path string) (*db.Project, error) {
	now := time.Now()
	p := &db.Project{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Path:        path,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateProject(p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetProject looks up one project.
func (s *FeatureStore) GetProject(id string) (*db.Project, error) {
	return s.store.GetProject(id)
}

// ListProjects returns all projects.
func (s *FeatureStore) ListProjects() ([]*db.Project, error) {
	return s.store.ListProjects()
}

// DeleteProject removes a project and cascades to its features. The cascade
// lives here at the deletion boundary, not inside the row store.
func (s *FeatureStore) DeleteProject(id string) error {
	if err := s.store.DeleteFeaturesByProject(id); err != nil {
		return err
	}
	if err := s.store.DeleteProject(id); err != nil {
		return err
	}

	s.mu.Lock()
	for fid, f := range s.features {
		if f.ProjectID == id {
			delete(s.features, fid)
		}
	}
	s.mu.Unlock()
	return nil
}

// --- features ---

// maxOrder returns the highest order across every status of a project, so new
// features always rank after everything that exists.
func (s *FeatureStore) maxOrder(projectID string) (int, error) {
	features, err := s.store.ListFeaturesByProject(projectID)
	if err != nil {
		return 0, err
	}
	max := 0
	for _, f := range features {
		if f.Order > max {
			max = f.Order
		}
	}
	return max, nil
}

// Create inserts one manually-entered feature into the backlog.
func (s *FeatureStore) Create(projectID string, input FeatureInput) (*db.Feature, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	maxOrder, err := s.maxOrder(projectID)
	if err != nil {
		return nil, err
	}

	complexity := input.EstimatedComplexity
	switch complexity {
	case db.ComplexityLow, db.ComplexityMedium, db.ComplexityHigh:
	default:
		complexity = db.ComplexityMedium
	}

	now := time.Now()
	f := &db.Feature{
		ID:                  uuid.NewString(),
		ProjectID:           projectID,
		Title:               input.Title,
		Description:         input.Description,
		Status:              db.StatusBacklog,
		Order:               maxOrder + 1,
		KeyPoints:           emptyIfNil(input.KeyPoints),
		AcceptanceCriteria:  emptyIfNil(input.AcceptanceCriteria),
		SuggestedTests:      emptyIfNil(input.SuggestedTests),
		Dependencies:        emptyIfNil(input.Dependencies),
		EstimatedComplexity: complexity,
		AutomationStatus:    db.AutomationIdle,
		AutomationLogs:      []db.LogEntry{},
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.store.InsertFeature(f); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.features[f.ID] = cloneFeature(f)
	s.mu.Unlock()

	telemetry.TrackFeatureCreated()
	return cloneFeature(f), nil
}

// CreateBatch imports generated features as one atomic backlog insert: all
// rows share a single timestamp and a strictly increasing order sequence that
// continues from the project's current maximum. Observers see either the
// previous feature set or the complete new one.
func (s *FeatureStore) CreateBatch(projectID string, generated []prompt.GeneratedFeature) ([]*db.Feature, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	maxOrder, err := s.maxOrder(projectID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	batch := make([]*db.Feature, 0, len(generated))
	for i, g := range generated {
		batch = append(batch, &db.Feature{
			ID:                  uuid.NewString(),
			ProjectID:           projectID,
			Title:               g.Title,
			Description:         g.Description,
			Status:              db.StatusBacklog,
			Order:               maxOrder + 1 + i,
			KeyPoints:           emptyIfNil(g.KeyPoints),
			AcceptanceCriteria:  emptyIfNil(g.AcceptanceCriteria),
			SuggestedTests:      emptyIfNil(g.SuggestedTests),
			Dependencies:        emptyIfNil(g.Dependencies),
			EstimatedComplexity: g.EstimatedComplexity,
			AutomationStatus:    db.AutomationIdle,
			AutomationLogs:      []db.LogEntry{},
			CreatedAt:           now,
			UpdatedAt:           now,
		})
	}

	if err := s.store.InsertFeatures(batch); err != nil {
		return nil, err
	}

	s.mu.Lock()
	for _, f := range batch {
		s.features[f.ID] = cloneFeature(f)
	}
	s.mu.Unlock()

	results := make([]*db.Feature, 0, len(batch))
	for _, f := range batch {
		telemetry.TrackFeatureCreated()
		results = append(results, cloneFeature(f))
	}
	return results, nil
}

// Get returns one feature.
func (s *FeatureStore) Get(id string) (*db.Feature, error) {
	s.mu.RLock()
	if f, ok := s.features[id]; ok {
		defer s.mu.RUnlock()
		return cloneFeature(f), nil
	}
	s.mu.RUnlock()

	f, err := s.store.GetFeature(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.features[f.ID] = cloneFeature(f)
	s.mu.Unlock()
	return f, nil
}

// ListByProject returns a project's features sorted by (status, order),
// refreshing the cache from the persisted rows.
func (s *FeatureStore) ListByProject(projectID string) ([]*db.Feature, error) {
	features, err := s.store.ListFeaturesByProject(projectID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(features, func(i, j int) bool {
		if features[i].Status != features[j].Status {
			return features[i].Status < features[j].Status
		}
		return features[i].Order < features[j].Order
	})

	s.mu.Lock()
	for _, f := range features {
		s.features[f.ID] = cloneFeature(f)
	}
	s.mu.Unlock()
	return features, nil
}

// persistThenCache applies an update to storage, then mirrors it onto the
// cached copy. Unknown ids surface as db.ErrNotFound.
func (s *FeatureStore) persistThenCache(id string, upd db.FeatureUpdate) error {
	if err := s.store.UpdateFeature(id, upd); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.features[id]
	if !ok {
		// Not cached yet; the next read pulls the persisted row.
		return nil
	}
	applyUpdate(f, upd, time.Now())
	return nil
}

func applyUpdate(f *db.Feature, upd db.FeatureUpdate, now time.Time) {
	if upd.Title != nil {
		f.Title = *upd.Title
	}
	if upd.Description != nil {
		f.Description = *upd.Description
	}
	if upd.Status != nil {
		f.Status = *upd.Status
	}
	if upd.Order != nil {
		f.Order = *upd.Order
	}
	if upd.KeyPoints != nil {
		f.KeyPoints = append([]string(nil), (*upd.KeyPoints)...)
	}
	if upd.AcceptanceCriteria != nil {
		f.AcceptanceCriteria = append([]string(nil), (*upd.AcceptanceCriteria)...)
	}
	if upd.SuggestedTests != nil {
		f.SuggestedTests = append([]string(nil), (*upd.SuggestedTests)...)
	}
	if upd.Dependencies != nil {
		f.Dependencies = append([]string(nil), (*upd.Dependencies)...)
	}
	if upd.EstimatedComplexity != nil {
		f.EstimatedComplexity = *upd.EstimatedComplexity
	}
	if upd.AutomationStatus != nil {
		f.AutomationStatus = *upd.AutomationStatus
	}
	if upd.AutomationLogs != nil {
		f.AutomationLogs = append([]db.LogEntry(nil), (*upd.AutomationLogs)...)
	}
	if upd.BranchName != nil {
		f.BranchName = *upd.BranchName
	}
	if upd.PrURL != nil {
		f.PrURL = *upd.PrURL
	}
	f.UpdatedAt = now
}

// Update persists the changed fields of a feature. Unknown ids return
// db.ErrNotFound rather than silently succeeding.
func (s *FeatureStore) Update(id string, upd db.FeatureUpdate) error {
	return s.persistThenCache(id, upd)
}

// Delete removes one feature.
func (s *FeatureStore) Delete(id string) error {
	if err := s.store.DeleteFeature(id); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.features, id)
	s.mu.Unlock()
	return nil
}

// DeleteByProject removes every feature of a project.
func (s *FeatureStore) DeleteByProject(projectID string) error {
	if err := s.store.DeleteFeaturesByProject(projectID); err != nil {
		return err
	}
	s.mu.Lock()
	for id, f := range s.features {
		if f.ProjectID == projectID {
			delete(s.features, id)
		}
	}
	s.mu.Unlock()
	return nil
}

// MoveToStatus moves a feature to a board column. When newOrder is nil the
// feature is appended after the column's current occupants. Siblings are not
// renumbered.
func (s *FeatureStore) MoveToStatus(id string, newStatus db.Status, newOrder *int) error {
	if !db.ValidStatus(newStatus) {
		return fmt.Errorf("invalid status: %s", newStatus)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	f, err := s.Get(id)
	if err != nil {
		return err
	}

	order := 0
	if newOrder != nil {
		order = *newOrder
	} else {
		siblings, err := s.store.ListFeaturesByProject(f.ProjectID)
		if err != nil {
			return err
		}
		for _, sib := range siblings {
			if sib.Status == newStatus && sib.ID != id {
				order++
			}
		}
	}

	return s.persistThenCache(id, db.FeatureUpdate{Status: &newStatus, Order: &order})
}

// Reorder assigns order = index within orderedIDs to every listed feature of
// the (projectID, status) partition. Features absent from the list keep their
// stale order; callers are expected to pass the full column.
func (s *FeatureStore) Reorder(projectID string, status db.Status, orderedIDs []string) error {
	features, err := s.store.ListFeaturesByProject(projectID)
	if err != nil {
		return err
	}
	inPartition := make(map[string]bool, len(features))
	for _, f := range features {
		if f.Status == status {
			inPartition[f.ID] = true
		}
	}

	for idx, fid := range orderedIDs {
		if !inPartition[fid] {
			continue
		}
		order := idx
		if err := s.persistThenCache(fid, db.FeatureUpdate{Order: &order}); err != nil {
			return err
		}
	}
	return nil
}

// --- automation fields ---
// These three are the only legal mutators of automation status and logs.

// UpdateAutomationStatus sets a feature's automation lifecycle state.
func (s *FeatureStore) UpdateAutomationStatus(id string, status db.AutomationStatus) error {
	return s.persistThenCache(id, db.FeatureUpdate{AutomationStatus: &status})
}

// AppendAutomationLog appends one log entry; existing entries are never
// reordered, duplicated, or lost. Appends are serialized because the shell
// executor streams stdout and stderr from two goroutines at once.
func (s *FeatureStore) AppendAutomationLog(id, step, message string, logType db.LogType) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	f, err := s.Get(id)
	if err != nil {
		return err
	}

	logs := append(f.AutomationLogs, db.LogEntry{
		Timestamp: time.Now(),
		Step:      step,
		Message:   message,
		Type:      logType,
	})
	return s.persistThenCache(id, db.FeatureUpdate{AutomationLogs: &logs})
}

// ClearAutomationLogs truncates a feature's log to empty. Only a starting
// automation run should invoke this. It takes the same lock as append so a
// straggling append cannot resurrect cleared entries.
func (s *FeatureStore) ClearAutomationLogs(id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	logs := []db.LogEntry{}
	return s.persistThenCache(id, db.FeatureUpdate{AutomationLogs: &logs})
}

// --- settings ---

// SetSetting stores a string setting.
func (s *FeatureStore) SetSetting(key, value string) error {
	return s.store.SetSetting(key, value)
}

// GetSetting reads a string setting; missing keys return db.ErrNotFound.
func (s *FeatureStore) GetSetting(key string) (string, error) {
	return s.store.GetSetting(key)
}
