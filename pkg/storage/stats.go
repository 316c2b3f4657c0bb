package storage

import "context"

// DashboardStats is the summary block behind the frontend cards.
type DashboardStats struct {
	TotalProjects     int `json:"total_projects"`
	TotalPublications int `json:"total_publications"`
	TotalResearch     int `json:"total_research"`
	TotalActivities   int `json:"total_activities"`
	TotalClassified   int `json:"total_classified"`
	TotalScraped      int `json:"total_scraped"`
	ActiveSDGs        int `json:"active_sdgs"`
}

// GetDashboardStats aggregates activity and classification counts.
func (d *DB) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	s := &DashboardStats{}
	err := d.sql.QueryRowContext(ctx, `SELECT
  COUNT(*),
  COALESCE(SUM(activity_type = 'Project'), 0),
  COALESCE(SUM(activity_type = 'Publication'), 0),
  COALESCE(SUM(activity_type = 'Research'), 0),
  COALESCE(SUM(ai_classified), 0),
  COALESCE(SUM(is_scraped), 0)
FROM activities`).Scan(&s.TotalActivities, &s.TotalProjects, &s.TotalPublications, &s.TotalResearch, &s.TotalClassified, &s.TotalScraped)
	if err != nil {
		return nil, err
	}

	err = d.sql.QueryRowContext(ctx, "SELECT COUNT(DISTINCT sdg_number) FROM sdg_impacts").Scan(&s.ActiveSDGs)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// SDGStats is one row of the per-goal dashboard table.
type SDGStats struct {
	Number        int     `json:"number"`
	Name          string  `json:"name"`
	ColorCode     string  `json:"color_code"`
	ActivityCount int     `json:"activity_count"`
	AverageScore  float64 `json:"average_score"`
}

// GetSDGStats returns all 17 goals with their activity counts and average
// relevance scores, in goal order.
func (d *DB) GetSDGStats(ctx context.Context) ([]SDGStats, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT
  g.number,
  g.name,
  COALESCE(g.color_code, ''),
  COUNT(i.activity_id),
  COALESCE(AVG(i.score), 0)
FROM sdg_goals g
LEFT JOIN sdg_impacts i ON i.sdg_number = g.number
GROUP BY g.number
ORDER BY g.number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SDGStats
	for rows.Next() {
		var s SDGStats
		if err := rows.Scan(&s.Number, &s.Name, &s.ColorCode, &s.ActivityCount, &s.AverageScore); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
