package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"fieldsync/internal/domain/form"
	"fieldsync/internal/domain/submission"
)

// SQLiteStore is the durable Store implementation backed by a single
// SQLite file in WAL mode.
type SQLiteStore struct {
	db    *sql.DB
	quota int64
}

func NewSQLiteStore(path string, quota int64) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &SQLiteStore{db: db, quota: quota}
	if err := s.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init tables: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initTables() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS submissions (
			local_id TEXT PRIMARY KEY,
			server_id TEXT,
			form_id TEXT NOT NULL,
			case_id TEXT,
			data TEXT NOT NULL,
			gps TEXT,
			media TEXT NOT NULL DEFAULT '[]',
			status TEXT NOT NULL,
			base_version INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			submitted_by TEXT,
			device_info TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_submissions_status ON submissions(status);
		CREATE INDEX IF NOT EXISTS idx_submissions_created ON submissions(created_at);

		CREATE TABLE IF NOT EXISTS forms (
			id TEXT PRIMARY KEY,
			project_id TEXT,
			payload TEXT NOT NULL,
			fetched_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_forms_project ON forms(project_id);

		CREATE TABLE IF NOT EXISTS media (
			id TEXT PRIMARY KEY,
			owner_local_id TEXT NOT NULL REFERENCES submissions(local_id) ON DELETE CASCADE,
			type TEXT NOT NULL,
			blob BLOB NOT NULL,
			metadata TEXT,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_media_owner ON media(owner_local_id);
	`)
	return err
}

// SaveSubmission persists a capture and its media atomically. A quota
// overrun or write failure is reported to the caller and leaves
// previously persisted records untouched.
func (s *SQLiteStore) SaveSubmission(payload SubmissionPayload) (string, error) {
	if payload.FormID == "" {
		return "", fmt.Errorf("%w: missing form_id", submission.ErrInvalidData)
	}
	if err := submission.ValidateData(payload.Data); err != nil {
		return "", err
	}

	if s.quota > 0 {
		var size int64
		for _, m := range payload.Media {
			size += int64(len(m.Blob))
		}
		if est, err := s.GetStorageEstimate(); err == nil && est != nil && est.Usage+size > est.Quota {
			return "", ErrQuotaExceeded
		}
	}

	localID := uuid.NewString()
	now := time.Now().UTC()

	refs := make([]submission.MediaRef, 0, len(payload.Media))
	for _, m := range payload.Media {
		refs = append(refs, submission.MediaRef{
			ID:       uuid.NewString(),
			Type:     m.Type,
			Name:     m.Name,
			Size:     int64(len(m.Blob)),
			Metadata: m.Metadata,
		})
	}

	dataJSON, err := json.Marshal(payload.Data)
	if err != nil {
		return "", fmt.Errorf("marshal data: %w", err)
	}
	mediaJSON, err := json.Marshal(refs)
	if err != nil {
		return "", fmt.Errorf("marshal media refs: %w", err)
	}
	var gpsJSON []byte
	if payload.GPS != nil {
		if gpsJSON, err = json.Marshal(payload.GPS); err != nil {
			return "", fmt.Errorf("marshal gps: %w", err)
		}
	}
	deviceJSON, err := json.Marshal(payload.DeviceInfo)
	if err != nil {
		return "", fmt.Errorf("marshal device info: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO submissions (local_id, form_id, case_id, data, gps, media,
		                         status, base_version, created_at, updated_at,
		                         submitted_by, device_info)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?, ?)
	`, localID, payload.FormID, payload.CaseID, string(dataJSON), nullable(gpsJSON),
		string(mediaJSON), submission.StatusPending,
		now.Format(time.RFC3339), now.Format(time.RFC3339),
		payload.SubmittedBy, string(deviceJSON))
	if err != nil {
		return "", fmt.Errorf("insert submission: %w", err)
	}

	for i, m := range payload.Media {
		metaJSON, err := json.Marshal(m.Metadata)
		if err != nil {
			return "", fmt.Errorf("marshal media metadata: %w", err)
		}
		_, err = tx.Exec(`
			INSERT INTO media (id, owner_local_id, type, blob, metadata, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, refs[i].ID, localID, m.Type, m.Blob, string(metaJSON), now.Format(time.RFC3339))
		if err != nil {
			return "", fmt.Errorf("insert media: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	return localID, nil
}

func (s *SQLiteStore) GetSubmission(localID string) (*submission.Submission, error) {
	row := s.db.QueryRow(`
		SELECT local_id, server_id, form_id, case_id, data, gps, media,
		       status, base_version, created_at, updated_at, submitted_by, device_info
		FROM submissions
		WHERE local_id = ?
	`, localID)

	sub, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, submission.ErrNotFound
	}
	return sub, err
}

func (s *SQLiteStore) GetPendingSubmissions() ([]*submission.Submission, error) {
	rows, err := s.db.Query(`
		SELECT local_id, server_id, form_id, case_id, data, gps, media,
		       status, base_version, created_at, updated_at, submitted_by, device_info
		FROM submissions
		WHERE status IN (?, ?, ?)
		ORDER BY created_at ASC, rowid ASC
	`, submission.StatusPending, submission.StatusFailed, submission.StatusConflict)
	if err != nil {
		return nil, fmt.Errorf("query pending: %w", err)
	}
	defer rows.Close()

	var result []*submission.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, sub)
	}
	return result, rows.Err()
}

func (s *SQLiteStore) UpdateSubmission(localID string, patch Patch) error {
	query := "UPDATE submissions SET updated_at = ?"
	args := []any{time.Now().UTC().Format(time.RFC3339)}

	if patch.Status != nil {
		query += ", status = ?"
		args = append(args, *patch.Status)
	}
	if patch.ServerID != nil {
		query += ", server_id = ?"
		args = append(args, *patch.ServerID)
	}
	if patch.Data != nil {
		dataJSON, err := json.Marshal(patch.Data)
		if err != nil {
			return fmt.Errorf("marshal data: %w", err)
		}
		query += ", data = ?"
		args = append(args, string(dataJSON))
	}
	if patch.BaseVersion != nil {
		query += ", base_version = ?"
		args = append(args, *patch.BaseVersion)
	}

	query += " WHERE local_id = ?"
	args = append(args, localID)

	res, err := s.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("update submission: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return submission.ErrNotFound
	}
	return nil
}

// DeleteSubmission only removes records the server has not confirmed,
// so an in-flight or synced record cannot disappear underneath the
// syncer. Rejected records are deletable, it is their only way out.
func (s *SQLiteStore) DeleteSubmission(localID string) error {
	_, err := s.db.Exec(`
		DELETE FROM submissions
		WHERE local_id = ? AND status IN (?, ?, ?, ?)
	`, localID, submission.StatusPending, submission.StatusFailed,
		submission.StatusConflict, submission.StatusRejected)
	if err != nil {
		return fmt.Errorf("delete submission: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SaveForm(f *form.Form) error {
	payload, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal form: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO forms (id, project_id, payload, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id = excluded.project_id,
			payload = excluded.payload,
			fetched_at = excluded.fetched_at
	`, f.ID, f.ProjectID, string(payload), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save form: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetForm(formID string) (*form.Form, error) {
	var payload string
	err := s.db.QueryRow("SELECT payload FROM forms WHERE id = ?", formID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, form.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get form: %w", err)
	}

	var f form.Form
	if err := json.Unmarshal([]byte(payload), &f); err != nil {
		return nil, fmt.Errorf("unmarshal form: %w", err)
	}
	return &f, nil
}

func (s *SQLiteStore) GetFormsByProject(projectID string) ([]*form.Form, error) {
	return s.queryForms("SELECT payload FROM forms WHERE project_id = ? ORDER BY id", projectID)
}

func (s *SQLiteStore) GetAllForms() ([]*form.Form, error) {
	return s.queryForms("SELECT payload FROM forms ORDER BY id")
}

func (s *SQLiteStore) queryForms(query string, args ...any) ([]*form.Form, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query forms: %w", err)
	}
	defer rows.Close()

	var forms []*form.Form
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan form: %w", err)
		}
		var f form.Form
		if err := json.Unmarshal([]byte(payload), &f); err != nil {
			return nil, fmt.Errorf("unmarshal form: %w", err)
		}
		forms = append(forms, &f)
	}
	return forms, rows.Err()
}

func (s *SQLiteStore) SaveMedia(mediaID, ownerLocalID, mediaType string, blob []byte, metadata map[string]string) error {
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal media metadata: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO media (id, owner_local_id, type, blob, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, mediaID, ownerLocalID, mediaType, blob, string(metaJSON), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save media: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetMedia(mediaID string) ([]byte, error) {
	var blob []byte
	err := s.db.QueryRow("SELECT blob FROM media WHERE id = ?", mediaID).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, submission.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get media: %w", err)
	}
	return blob, nil
}

func (s *SQLiteStore) GetPendingCount() (int, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM submissions WHERE status IN (?, ?, ?)
	`, submission.StatusPending, submission.StatusFailed, submission.StatusConflict).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pending: %w", err)
	}
	return count, nil
}

func (s *SQLiteStore) GetStorageEstimate() (*submission.StorageEstimate, error) {
	if s.quota <= 0 {
		// No configured quota means usage cannot be put in context.
		return nil, nil
	}

	var pageCount, pageSize int64
	if err := s.db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return nil, fmt.Errorf("page count: %w", err)
	}
	if err := s.db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return nil, fmt.Errorf("page size: %w", err)
	}

	usage := pageCount * pageSize
	return &submission.StorageEstimate{
		Usage:        usage,
		Quota:        s.quota,
		UsagePercent: float64(usage) / float64(s.quota) * 100,
	}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (*submission.Submission, error) {
	var sub submission.Submission
	var serverID, caseID, gpsJSON, submittedBy, deviceJSON sql.NullString
	var dataJSON, mediaJSON, createdAt, updatedAt string

	err := row.Scan(&sub.LocalID, &serverID, &sub.FormID, &caseID, &dataJSON,
		&gpsJSON, &mediaJSON, &sub.Status, &sub.BaseVersion,
		&createdAt, &updatedAt, &submittedBy, &deviceJSON)
	if err != nil {
		return nil, err
	}

	sub.ServerID = serverID.String
	sub.CaseID = caseID.String
	sub.SubmittedBy = submittedBy.String

	if err := json.Unmarshal([]byte(dataJSON), &sub.Data); err != nil {
		return nil, fmt.Errorf("unmarshal data: %w", err)
	}
	if err := json.Unmarshal([]byte(mediaJSON), &sub.Media); err != nil {
		return nil, fmt.Errorf("unmarshal media refs: %w", err)
	}
	if gpsJSON.Valid && gpsJSON.String != "" {
		if err := json.Unmarshal([]byte(gpsJSON.String), &sub.GPS); err != nil {
			return nil, fmt.Errorf("unmarshal gps: %w", err)
		}
	}
	if deviceJSON.Valid && deviceJSON.String != "" {
		if err := json.Unmarshal([]byte(deviceJSON.String), &sub.DeviceInfo); err != nil {
			return nil, fmt.Errorf("unmarshal device info: %w", err)
		}
	}

	sub.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	sub.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &sub, nil
}

func nullable(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
