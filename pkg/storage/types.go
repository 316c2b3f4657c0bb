package storage

import "time"

// ActivityType classifies a university activity.
type ActivityType string

const (
	TypeProject     ActivityType = "Project"
	TypePublication ActivityType = "Publication"
	TypeResearch    ActivityType = "Research"
)

// ActivityData carries the harvested fields for one activity. It is the
// payload of the upsert contract: on update every field here replaces the
// stored value.
type ActivityData struct {
	Title       string
	Description string
	Authors     string

	ActivityType ActivityType
	Status       string

	// OriginalPublicationDate is nil when the source date was absent or
	// unparseable.
	OriginalPublicationDate *time.Time

	// ExternalURL is the reconciliation natural key.
	ExternalURL string

	IsScraped    bool
	AIClassified bool

	// LeadAuthorID attributes the record to a local user; 0 means none.
	LeadAuthorID int64
}

// Activity is a stored activity row.
type Activity struct {
	ID int64
	ActivityData
	CreatedAt time.Time
	UpdatedAt time.Time
}

// User is a local principal activities can be attributed to.
type User struct {
	ID       int64
	Username string
	FullName string
}

// SDGImpact links an activity to one goal with the oracle's score.
type SDGImpact struct {
	ActivityID    int64
	SDGNumber     int
	Score         int
	Justification string
}
