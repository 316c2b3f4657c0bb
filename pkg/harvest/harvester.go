package harvest

import (
	"context"
	"fmt"
	"time"

	"github.com/daystar-sdg/sdgtrack/pkg/oai"
	"github.com/daystar-sdg/sdgtrack/pkg/storage"
)

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// nopLogger silently discards all messages.
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// RecordCursor is the lazy record stream a harvest run consumes.
type RecordCursor interface {
	Next(ctx context.Context) bool
	Record() *oai.Record
	Err() error
}

// RecordSource opens a date-bounded listing against the remote repository.
type RecordSource interface {
	ListRecords(ctx context.Context, opts oai.ListOptions) (RecordCursor, error)
}

// NewOAISource adapts an oai.Client to the RecordSource interface.
func NewOAISource(c *oai.Client) RecordSource {
	return oaiSource{c}
}

type oaiSource struct {
	client *oai.Client
}

func (s oaiSource) ListRecords(ctx context.Context, opts oai.ListOptions) (RecordCursor, error) {
	cur, err := s.client.ListRecords(ctx, opts)
	if err != nil {
		return nil, err
	}
	return cur, nil
}

// ActivityStore is the reconciliation contract the driver needs: idempotent
// find-else-create keyed on the external URL.
type ActivityStore interface {
	UpsertActivityByExternalURL(ctx context.Context, externalURL string, data storage.ActivityData) (id int64, created bool, err error)
}

// Config holds everything a Harvester needs for its runs.
type Config struct {
	Source RecordSource
	Store  ActivityStore
	Log    Logger // optional; nil = no logging

	// LeadAuthorID attributes harvested records when no local author is
	// known; 0 leaves them unattributed.
	LeadAuthorID int64
}

// Options bounds a single run.
type Options struct {
	From  time.Time
	Until time.Time
	// Limit stops the run after this many successfully processed records;
	// 0 means unbounded.
	Limit int
}

// Result holds the final counters of a run. Counters only ever accumulate;
// failed records count toward none of them.
type Result struct {
	TotalProcessed    int
	NewActivities     int
	UpdatedActivities int
}

// Harvester drives incremental harvest runs: it pages through the remote
// listing, extracts each record, and upserts it, isolating per-record
// failures so one malformed record never aborts the run.
type Harvester struct {
	source       RecordSource
	store        ActivityStore
	log          Logger
	leadAuthorID int64
}

// New validates the config and builds a Harvester.
func New(cfg Config) (*Harvester, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("harvest: record source is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("harvest: activity store is required")
	}
	log := cfg.Log
	if log == nil {
		log = nopLogger{}
	}
	return &Harvester{
		source:       cfg.Source,
		store:        cfg.Store,
		log:          log,
		leadAuthorID: cfg.LeadAuthorID,
	}, nil
}

// recordOutcome is the explicit result of processing one record; the driver
// aggregates these instead of relying on panics or broad error control flow.
type recordOutcome struct {
	identifier string
	created    bool
	err        error
}

// Run executes one harvest. A failure while opening or paging the listing
// is fatal and returns no partial Result; a failure on an individual record
// is logged and skipped.
func (h *Harvester) Run(ctx context.Context, opts Options) (*Result, error) {
	cur, err := h.source.ListRecords(ctx, oai.ListOptions{From: opts.From, Until: opts.Until})
	if err != nil {
		return nil, fmt.Errorf("harvest: opening record listing: %w", err)
	}

	res := &Result{}
	for cur.Next(ctx) {
		if opts.Limit > 0 && res.TotalProcessed >= opts.Limit {
			break
		}

		outcome := h.processRecord(ctx, cur.Record())
		if outcome.err != nil {
			id := outcome.identifier
			if id == "" {
				id = "Unknown ID"
			}
			h.log.Errorf("Error processing record %s: %v", id, outcome.err)
			continue
		}

		res.TotalProcessed++
		if outcome.created {
			res.NewActivities++
			if res.NewActivities%50 == 0 {
				h.log.Infof("Harvested %d new activities so far", res.NewActivities)
			}
		} else {
			res.UpdatedActivities++
		}
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("harvest: record listing failed mid-run: %w", err)
	}

	h.log.Infof("Harvest complete. Total processed: %d, new: %d, updated: %d",
		res.TotalProcessed, res.NewActivities, res.UpdatedActivities)
	return res, nil
}

func (h *Harvester) processRecord(ctx context.Context, rec *oai.Record) recordOutcome {
	out := recordOutcome{}
	if rec != nil {
		out.identifier = rec.Identifier
	}
	if rec == nil {
		out.err = fmt.Errorf("nil record")
		return out
	}

	data := ExtractActivity(rec, h.leadAuthorID)
	if data.ExternalURL == "" {
		out.err = fmt.Errorf("record has no usable identifier")
		return out
	}

	_, created, err := h.store.UpsertActivityByExternalURL(ctx, data.ExternalURL, data)
	if err != nil {
		out.err = fmt.Errorf("upsert: %w", err)
		return out
	}
	out.created = created

	h.log.Debugf("Processed record %s (%s)", rec.Identifier, data.Title)
	return out
}
