package storage

import (
	"context"
	"fmt"
)

// UpsertImpact records the oracle's score for one (activity, goal) pair.
// The pair is composite-unique; a later classification overwrites the
// earlier score and justification.
func (d *DB) UpsertImpact(ctx context.Context, impact SDGImpact) error {
	if impact.SDGNumber < 1 || impact.SDGNumber > 17 {
		return fmt.Errorf("storage: sdg number %d out of range", impact.SDGNumber)
	}
	if impact.Score < 0 || impact.Score > 100 {
		return fmt.Errorf("storage: impact score %d out of range", impact.Score)
	}

	_, err := d.sql.ExecContext(ctx, `INSERT INTO sdg_impacts(activity_id, sdg_number, score, justification) VALUES(?,?,?,?)
ON CONFLICT(activity_id, sdg_number) DO UPDATE SET score = excluded.score, justification = excluded.justification, updated_at = CURRENT_TIMESTAMP`,
		impact.ActivityID, impact.SDGNumber, impact.Score, impact.Justification)
	return err
}

// ListImpacts returns all stored impacts for an activity, strongest first.
func (d *DB) ListImpacts(ctx context.Context, activityID int64) ([]SDGImpact, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT activity_id, sdg_number, score, justification FROM sdg_impacts WHERE activity_id = ? ORDER BY score DESC", activityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SDGImpact
	for rows.Next() {
		var i SDGImpact
		if err := rows.Scan(&i.ActivityID, &i.SDGNumber, &i.Score, &i.Justification); err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// SDGSummary aggregates impact statistics for one goal.
type SDGSummary struct {
	Number          int     `json:"number"`
	Name            string  `json:"name"`
	TotalActivities int     `json:"total_activities"`
	AverageScore    float64 `json:"average_score"`
	MaxScore        int     `json:"max_score"`
	MinScore        int     `json:"min_score"`
}

// GetSDGSummary returns impact statistics for a single goal.
func (d *DB) GetSDGSummary(ctx context.Context, number int) (*SDGSummary, error) {
	if number < 1 || number > 17 {
		return nil, fmt.Errorf("storage: sdg number %d out of range", number)
	}

	s := &SDGSummary{Number: number}
	err := d.sql.QueryRowContext(ctx, "SELECT name FROM sdg_goals WHERE number = ?", number).Scan(&s.Name)
	if err != nil {
		return nil, err
	}

	err = d.sql.QueryRowContext(ctx, `SELECT COUNT(DISTINCT activity_id), COALESCE(AVG(score), 0), COALESCE(MAX(score), 0), COALESCE(MIN(score), 0) FROM sdg_impacts WHERE sdg_number = ?`, number).
		Scan(&s.TotalActivities, &s.AverageScore, &s.MaxScore, &s.MinScore)
	if err != nil {
		return nil, err
	}
	return s, nil
}
