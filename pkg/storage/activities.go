package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const activityDateLayout = "2006-01-02"

// UpsertActivityByExternalURL performs an atomic find-else-create keyed on
// the external URL natural key. When a row already exists, every harvested
// field is replaced (full replace, not merge). Calling it twice with the
// same input leaves equivalent state.
func (d *DB) UpsertActivityByExternalURL(ctx context.Context, externalURL string, data ActivityData) (id int64, created bool, err error) {
	if externalURL == "" {
		return 0, false, fmt.Errorf("storage: external URL is required for upsert")
	}

	status := data.Status
	if status == "" {
		status = "Active"
	}

	var pubDate interface{}
	if data.OriginalPublicationDate != nil {
		pubDate = data.OriginalPublicationDate.Format(activityDateLayout)
	}

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	err = tx.QueryRowContext(ctx, "SELECT id FROM activities WHERE external_url = ?", externalURL).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		var res sql.Result
		res, err = tx.ExecContext(ctx, `INSERT INTO activities(title, description, activity_type, status, authors, lead_author_id, original_publication_date, is_scraped, ai_classified, external_url) VALUES(?,?,?,?,?,?,?,?,?,?)`,
			data.Title, data.Description, string(data.ActivityType), status, nullIfEmpty(data.Authors), nullIfZero(data.LeadAuthorID), pubDate, boolToInt(data.IsScraped), boolToInt(data.AIClassified), externalURL)
		if err != nil {
			return 0, false, err
		}
		id, err = res.LastInsertId()
		if err != nil {
			return 0, false, err
		}
		created = true
	case err != nil:
		return 0, false, err
	default:
		_, err = tx.ExecContext(ctx, `UPDATE activities SET title = ?, description = ?, activity_type = ?, status = ?, authors = ?, lead_author_id = ?, original_publication_date = ?, is_scraped = ?, ai_classified = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			data.Title, data.Description, string(data.ActivityType), status, nullIfEmpty(data.Authors), nullIfZero(data.LeadAuthorID), pubDate, boolToInt(data.IsScraped), boolToInt(data.AIClassified), id)
		if err != nil {
			return 0, false, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, false, err
	}
	return id, created, nil
}

// ListOptions controls selection when listing activities.
type ListOptions struct {
	Type        ActivityType
	ScrapedOnly bool
	Since       time.Time
	Limit       int
}

// ListActivities returns stored activities matching filters, newest first.
func (d *DB) ListActivities(ctx context.Context, opts ListOptions) ([]Activity, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	if opts.Type != "" {
		where += " AND activity_type = ?"
		args = append(args, string(opts.Type))
	}
	if opts.ScrapedOnly {
		where += " AND is_scraped = 1"
	}
	if !opts.Since.IsZero() {
		where += " AND updated_at >= ?"
		args = append(args, opts.Since.UTC())
	}

	q := "SELECT id, title, description, activity_type, status, authors, lead_author_id, original_publication_date, is_scraped, ai_classified, external_url FROM activities " + where + " ORDER BY id DESC"
	if opts.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListUnclassified returns activities the AI pipeline has not scored yet.
func (d *DB) ListUnclassified(ctx context.Context, limit int) ([]Activity, error) {
	q := "SELECT id, title, description, activity_type, status, authors, lead_author_id, original_publication_date, is_scraped, ai_classified, external_url FROM activities WHERE ai_classified = 0 ORDER BY id"
	args := []interface{}{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// MarkClassified flags an activity as processed by the AI pipeline.
func (d *DB) MarkClassified(ctx context.Context, activityID int64) error {
	_, err := d.sql.ExecContext(ctx, "UPDATE activities SET ai_classified = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?", activityID)
	return err
}

func scanActivity(rows *sql.Rows) (Activity, error) {
	var (
		a        Activity
		authors  sql.NullString
		leadID   sql.NullInt64
		pubDate  sql.NullString
		scraped  int
		classed  int
		extURL   sql.NullString
		actType  string
	)
	if err := rows.Scan(&a.ID, &a.Title, &a.Description, &actType, &a.Status, &authors, &leadID, &pubDate, &scraped, &classed, &extURL); err != nil {
		return Activity{}, err
	}
	a.ActivityType = ActivityType(actType)
	a.Authors = authors.String
	a.LeadAuthorID = leadID.Int64
	a.IsScraped = scraped == 1
	a.AIClassified = classed == 1
	a.ExternalURL = extURL.String
	if pubDate.Valid {
		if t, err := time.Parse(activityDateLayout, pubDate.String); err == nil {
			a.OriginalPublicationDate = &t
		}
	}
	return a, nil
}
