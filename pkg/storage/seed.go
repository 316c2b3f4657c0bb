package storage

// The 17 UN Sustainable Development Goals with their official hex colors.
var sdgGoals = []struct {
	Number int
	Name   string
	Color  string
}{
	{1, "No Poverty", "#E5243B"},
	{2, "Zero Hunger", "#DDA63A"},
	{3, "Good Health and Well-being", "#4C9F38"},
	{4, "Quality Education", "#C5192D"},
	{5, "Gender Equality", "#FF3A21"},
	{6, "Clean Water and Sanitation", "#26BDE2"},
	{7, "Affordable and Clean Energy", "#FCC30B"},
	{8, "Decent Work and Economic Growth", "#A21942"},
	{9, "Industry, Innovation and Infrastructure", "#FD6925"},
	{10, "Reduced Inequality", "#DD1367"},
	{11, "Sustainable Cities and Communities", "#FD9D24"},
	{12, "Responsible Consumption and Production", "#BF8B2E"},
	{13, "Climate Action", "#3F7E44"},
	{14, "Life Below Water", "#0A97D9"},
	{15, "Life on Land", "#56C02B"},
	{16, "Peace, Justice and Strong Institutions", "#00689D"},
	{17, "Partnerships for the Goals", "#19486A"},
}

func (d *DB) seedSDGGoals() error {
	for _, g := range sdgGoals {
		if _, err := d.sql.Exec("INSERT OR IGNORE INTO sdg_goals(number, name, color_code) VALUES(?,?,?)", g.Number, g.Name, g.Color); err != nil {
			return err
		}
	}
	return nil
}
