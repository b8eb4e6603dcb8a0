package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// sqlStore implements Store over database/sql. Queries are written with `?`
// placeholders; the rebind hook rewrites them for backends that number their
// parameters (Postgres).
type sqlStore struct {
	db     *sql.DB
	rebind func(string) string
}

func passthrough(q string) string { return q }

func (s *sqlStore) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// --- projects ---

func (s *sqlStore) CreateProject(p *Project) error {
	query := s.rebind(`INSERT INTO projects (id, name, description, path, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := s.db.Exec(query, p.ID, p.Name, p.Description, p.Path, formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	return nil
}

func (s *sqlStore) GetProject(id string) (*Project, error) {
	query := s.rebind(`SELECT id, name, description, path, created_at, updated_at FROM projects WHERE id = ?`)
	row := s.db.QueryRow(query, id)

	var p Project
	var createdAt, updatedAt string
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Path, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

func (s *sqlStore) ListProjects() ([]*Project, error) {
	query := `SELECT id, name, description, path, created_at, updated_at FROM projects ORDER BY created_at`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*Project
	for rows.Next() {
		var p Project
		var createdAt, updatedAt string
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Path, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		p.CreatedAt = parseTime(createdAt)
		p.UpdatedAt = parseTime(updatedAt)
		results = append(results, &p)
	}
	return results, rows.Err()
}

func (s *sqlStore) DeleteProject(id string) error {
	res, err := s.db.Exec(s.rebind(`DELETE FROM projects WHERE id = ?`), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- features ---

const featureColumns = `id, project_id, title, description, status, sort_order,
	key_points, acceptance_criteria, suggested_tests, dependencies,
	estimated_complexity, automation_status, automation_logs,
	branch_name, pr_url, created_at, updated_at`

func (s *sqlStore) insertFeatureTx(tx *sql.Tx, f *Feature) error {
	keyPoints, err := encodeJSON(f.KeyPoints)
	if err != nil {
		return err
	}
	acceptance, err := encodeJSON(f.AcceptanceCriteria)
	if err != nil {
		return err
	}
	tests, err := encodeJSON(f.SuggestedTests)
	if err != nil {
		return err
	}
	deps, err := encodeJSON(f.Dependencies)
	if err != nil {
		return err
	}
	logs, err := encodeJSON(f.AutomationLogs)
	if err != nil {
		return err
	}

	query := s.rebind(`INSERT INTO features (` + featureColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = tx.Exec(query,
		f.ID, f.ProjectID, f.Title, f.Description, string(f.Status), f.Order,
		keyPoints, acceptance, tests, deps,
		string(f.EstimatedComplexity), string(f.AutomationStatus), logs,
		f.BranchName, f.PrURL, formatTime(f.CreatedAt), formatTime(f.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert feature: %w", err)
	}
	return nil
}

func (s *sqlStore) InsertFeature(f *Feature) error {
	return s.InsertFeatures([]*Feature{f})
}

func (s *sqlStore) InsertFeatures(fs []*Feature) error {
	if len(fs) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	for _, f := range fs {
		if err := s.insertFeatureTx(tx, f); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func scanFeature(scan func(dest ...any) error) (*Feature, error) {
	var f Feature
	var status, complexity, automationStatus string
	var keyPoints, acceptance, tests, deps, logs string
	var branch, prURL sql.NullString
	var createdAt, updatedAt string

	err := scan(&f.ID, &f.ProjectID, &f.Title, &f.Description, &status, &f.Order,
		&keyPoints, &acceptance, &tests, &deps,
		&complexity, &automationStatus, &logs,
		&branch, &prURL, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	f.Status = Status(status)
	f.EstimatedComplexity = Complexity(complexity)
	f.AutomationStatus = AutomationStatus(automationStatus)
	f.BranchName = branch.String
	f.PrURL = prURL.String
	f.CreatedAt = parseTime(createdAt)
	f.UpdatedAt = parseTime(updatedAt)

	// Malformed JSON columns degrade to empty lists rather than failing reads.
	_ = json.Unmarshal([]byte(keyPoints), &f.KeyPoints)
	_ = json.Unmarshal([]byte(acceptance), &f.AcceptanceCriteria)
	_ = json.Unmarshal([]byte(tests), &f.SuggestedTests)
	_ = json.Unmarshal([]byte(deps), &f.Dependencies)
	_ = json.Unmarshal([]byte(logs), &f.AutomationLogs)

	return &f, nil
}

func (s *sqlStore) GetFeature(id string) (*Feature, error) {
	query := s.rebind(`SELECT ` + featureColumns + ` FROM features WHERE id = ?`)
	row := s.db.QueryRow(query, id)
	f, err := scanFeature(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return f, err
}

func (s *sqlStore) ListFeaturesByProject(projectID string) ([]*Feature, error) {
	query := s.rebind(`SELECT ` + featureColumns + ` FROM features WHERE project_id = ? ORDER BY status, sort_order`)
	rows, err := s.db.Query(query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*Feature
	for rows.Next() {
		f, err := scanFeature(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, f)
	}
	return results, rows.Err()
}

func (s *sqlStore) UpdateFeature(id string, upd FeatureUpdate) error {
	cols, vals, err := upd.assignments(time.Now())
	if err != nil {
		return err
	}

	var sets []string
	for _, col := range cols {
		sets = append(sets, col+" = ?")
	}
	query := s.rebind(fmt.Sprintf(`UPDATE features SET %s WHERE id = ?`, strings.Join(sets, ", ")))
	vals = append(vals, id)

	res, err := s.db.Exec(query, vals...)
	if err != nil {
		return fmt.Errorf("failed to update feature: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqlStore) DeleteFeature(id string) error {
	res, err := s.db.Exec(s.rebind(`DELETE FROM features WHERE id = ?`), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqlStore) DeleteFeaturesByProject(projectID string) error {
	_, err := s.db.Exec(s.rebind(`DELETE FROM features WHERE project_id = ?`), projectID)
	return err
}

// --- settings ---

func (s *sqlStore) SetSetting(key, value string) error {
	// Upsert syntax shared by SQLite and Postgres.
	query := s.rebind(`INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`)
	_, err := s.db.Exec(query, key, value)
	return err
}

func (s *sqlStore) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(s.rebind(`SELECT value FROM settings WHERE key = ?`), key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return value, err
}
