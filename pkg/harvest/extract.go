// Package harvest turns raw OAI-PMH records into stored activities: field
// normalization, activity-type inference, and the incremental run driver.
package harvest

import (
	"strings"
	"time"

	"github.com/daystar-sdg/sdgtrack/internal/utils"
	"github.com/daystar-sdg/sdgtrack/pkg/oai"
	"github.com/daystar-sdg/sdgtrack/pkg/storage"
)

// Placeholder values applied when a record omits a field entirely.
const (
	defaultTitle       = "No Title Provided"
	defaultDescription = "No Description Provided"
	defaultAuthors     = "Anonymous"
)

// collapseField reduces a multi-valued metadata field to a scalar: empty
// entries are dropped, a lone value is used bare, multiple values are joined
// with "; ", and an empty result falls back to the default.
func collapseField(values []string, def string) string {
	clean := values[:0:0]
	for _, v := range values {
		if v != "" {
			clean = append(clean, v)
		}
	}
	switch len(clean) {
	case 0:
		return def
	case 1:
		return clean[0]
	default:
		return strings.Join(clean, "; ")
	}
}

// parsePublicationDate handles the repository's date shapes: a full
// timestamp (time-of-day dropped after the literal T), a bare YYYY-MM-DD, or
// a bare year, which parses as January 1 of that year.
func parsePublicationDate(raw string) (time.Time, error) {
	clean, _, _ := strings.Cut(raw, "T")
	if len(clean) == 4 {
		return time.Parse("2006", clean)
	}
	return time.Parse("2006-01-02", clean)
}

// InferActivityType maps a free-text record type onto the activity-type
// enum. The rules are ordered and first match wins; a record mentioning both
// "thesis" and "journal" is Research.
func InferActivityType(rawType string) storage.ActivityType {
	typeStr := strings.ToLower(rawType)

	switch {
	case strings.Contains(typeStr, "thesis"), strings.Contains(typeStr, "dissertation"):
		return storage.TypeResearch
	case strings.Contains(typeStr, "article"), strings.Contains(typeStr, "journal"), strings.Contains(typeStr, "publication"):
		return storage.TypePublication
	case strings.Contains(typeStr, "report"):
		return storage.TypePublication
	default:
		return storage.TypePublication
	}
}

// ExtractActivity normalizes one raw record into the activity field set.
// A bad date is logged and left nil rather than failing the record.
func ExtractActivity(rec *oai.Record, leadAuthorID int64) storage.ActivityData {
	data := storage.ActivityData{
		Title:        collapseField(rec.Values("title"), defaultTitle),
		Description:  collapseField(rec.Values("description"), defaultDescription),
		Authors:      collapseField(rec.Values("creator"), defaultAuthors),
		IsScraped:    true,
		AIClassified: false,
		LeadAuthorID: leadAuthorID,
	}

	// Only the first present date value matters for parsing.
	var dateStr string
	for _, v := range rec.Values("date") {
		if v != "" {
			dateStr = v
			break
		}
	}
	if dateStr != "" {
		if parsed, err := parsePublicationDate(dateStr); err == nil {
			data.OriginalPublicationDate = &parsed
		} else {
			utils.Log.Warnf("Could not parse date '%s' for record %s", dateStr, rec.Identifier)
		}
	}

	// The first HTTP-looking identifier is the natural key; the OAI header
	// identifier is the fallback. This value must be stable across harvests.
	data.ExternalURL = rec.Identifier
	for _, ident := range rec.Values("identifier") {
		if strings.HasPrefix(ident, "http") {
			data.ExternalURL = ident
			break
		}
	}

	rawType := ""
	if types := rec.Values("type"); len(types) > 0 {
		rawType = types[0]
	}
	data.ActivityType = InferActivityType(rawType)

	return data
}
