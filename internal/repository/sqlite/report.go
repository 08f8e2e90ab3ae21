package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/codelens/internal/apperror"
	"github.com/sakif/codelens/internal/model"
	"github.com/sakif/codelens/internal/repository"
)

// compile-time check that *DB implements repository.ReportRepository
var _ repository.ReportRepository = (*DB)(nil)

// Save inserts a report. ID and AnalyzedAt are set here if the caller left
// them zero. Reports are write-once; there is no Update.
//
// Issues and recommendations are marshalled to JSON blobs; they're only ever
// read back whole with the row.
func (db *DB) Save(ctx context.Context, report *model.Report) error {
	if report.ID == "" {
		report.ID = xid.New().String()
	}
	if report.AnalyzedAt.IsZero() {
		report.AnalyzedAt = time.Now()
	}

	issues, err := json.Marshal(report.Issues)
	if err != nil {
		return fmt.Errorf("sqlite: marshalling issues for report %s: %w", report.ID, err)
	}
	recs, err := json.Marshal(report.Recommendations)
	if err != nil {
		return fmt.Errorf("sqlite: marshalling recommendations for report %s: %w", report.ID, err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO reports (id, user_id, file_name, source_url, overall_score,
		                      issues, recommendations, source_text, analyzed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID,
		report.UserID,
		report.FileName,
		report.SourceURL,
		report.OverallScore,
		string(issues),
		string(recs),
		report.SourceText,
		report.AnalyzedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting report %s: %w", report.ID, err)
	}

	return nil
}

// ListForUser returns all of a user's reports, newest first.
//
// The secondary sort on id breaks ties between reports saved within the same
// timestamp granularity; xid values are time-ordered, so newest-first holds
// even then. A user with no reports gets an empty slice, not nil.
func (db *DB) ListForUser(ctx context.Context, userID string) ([]model.Report, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, file_name, source_url, overall_score,
		        issues, recommendations, source_text, analyzed_at
		 FROM reports WHERE user_id = ?
		 ORDER BY analyzed_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing reports for user %s: %w", userID, err)
	}
	defer rows.Close()

	reports := []model.Report{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning report row: %w", err)
		}
		reports = append(reports, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating reports for user %s: %w", userID, err)
	}

	return reports, nil
}

// GetByID returns one report scoped to its owner. Asking for another user's
// report behaves exactly like asking for a missing one.
func (db *DB) GetByID(ctx context.Context, userID, id string) (*model.Report, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, file_name, source_url, overall_score,
		        issues, recommendations, source_text, analyzed_at
		 FROM reports WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting report %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("sqlite: getting report %s: %w", id, err)
		}
		return nil, apperror.NotFound("report", id)
	}

	r, err := scanReport(rows)
	if err != nil {
		return nil, fmt.Errorf("sqlite: scanning report %s: %w", id, err)
	}
	return r, nil
}

// scanReport reads one row and unmarshals the JSON blob columns.
func scanReport(rows *sql.Rows) (*model.Report, error) {
	var (
		r          model.Report
		issuesJSON string
		recsJSON   string
	)
	err := rows.Scan(
		&r.ID,
		&r.UserID,
		&r.FileName,
		&r.SourceURL,
		&r.OverallScore,
		&issuesJSON,
		&recsJSON,
		&r.SourceText,
		&r.AnalyzedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(issuesJSON), &r.Issues); err != nil {
		return nil, fmt.Errorf("unmarshalling issues: %w", err)
	}
	if err := json.Unmarshal([]byte(recsJSON), &r.Recommendations); err != nil {
		return nil, fmt.Errorf("unmarshalling recommendations: %w", err)
	}

	return &r, nil
}
