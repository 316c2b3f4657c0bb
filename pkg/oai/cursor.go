package oai

import (
	"context"
	"net/url"
)

// Cursor iterates lazily over a paginated ListRecords result. Iteration is
// strictly sequential; the resumption token is stateful on the remote side.
//
//	cur, err := client.ListRecords(ctx, opts)
//	for cur.Next(ctx) {
//		rec := cur.Record()
//	}
//	if err := cur.Err(); err != nil { ... }
type Cursor struct {
	client *Client

	records []*Record
	idx     int
	current *Record
	token   string
	done    bool
	err     error
}

// Next advances to the next non-deleted record, fetching further pages as
// needed. It returns false when the listing is exhausted or a pagination
// failure occurred; check Err to tell the two apart.
func (cur *Cursor) Next(ctx context.Context) bool {
	if cur.err != nil || cur.done {
		return false
	}

	for {
		for cur.idx < len(cur.records) {
			rec := cur.records[cur.idx]
			cur.idx++
			if rec.Deleted {
				continue
			}
			cur.current = rec
			return true
		}

		if cur.token == "" {
			cur.done = true
			return false
		}

		params := url.Values{}
		params.Set("verb", "ListRecords")
		params.Set("resumptionToken", cur.token)
		if err := cur.fetchPage(ctx, params); err != nil {
			cur.err = err
			return false
		}
	}
}

// Record returns the record produced by the last successful Next.
func (cur *Cursor) Record() *Record {
	return cur.current
}

// Err reports the pagination failure that stopped iteration, if any.
func (cur *Cursor) Err() error {
	return cur.err
}

func (cur *Cursor) fetchPage(ctx context.Context, params url.Values) error {
	resp, err := cur.client.request(ctx, params)
	if err != nil {
		return err
	}

	for _, e := range resp.Errors {
		// An empty window is a normal outcome, not a failure.
		if e.Code == "noRecordsMatch" {
			cur.records = nil
			cur.idx = 0
			cur.token = ""
			return nil
		}
		return &ProtocolError{Code: e.Code, Message: e.Message}
	}

	records := make([]*Record, 0, len(resp.ListRecords.Records))
	for i := range resp.ListRecords.Records {
		records = append(records, resp.ListRecords.Records[i].toRecord())
	}
	cur.records = records
	cur.idx = 0
	cur.token = resp.ListRecords.ResumptionToken
	return nil
}
