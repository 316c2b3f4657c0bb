package oai

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const pageOne = `<?xml version="1.0" encoding="UTF-8"?>
<OAI-PMH xmlns="http://www.openarchives.org/OAI/2.0/">
  <responseDate>2024-02-01T00:00:00Z</responseDate>
  <request verb="ListRecords">https://repo.example/oai</request>
  <ListRecords>
    <record>
      <header>
        <identifier>oai:repo:1</identifier>
        <datestamp>2021-06-15</datestamp>
      </header>
      <metadata>
        <oai_dc:dc xmlns:oai_dc="http://www.openarchives.org/OAI/2.0/oai_dc/" xmlns:dc="http://purl.org/dc/elements/1.1/">
          <dc:title>Water Access in Arid Kenya</dc:title>
          <dc:creator>Mwangi, J.</dc:creator>
          <dc:creator>Otieno, A.</dc:creator>
          <dc:date>2021-06-15T10:30:00Z</dc:date>
          <dc:identifier>oai:repo:1</dc:identifier>
          <dc:identifier>http://repo.example/handle/1</dc:identifier>
          <dc:type>Journal Article</dc:type>
          <dc:description></dc:description>
        </oai_dc:dc>
      </metadata>
    </record>
    <record>
      <header status="deleted">
        <identifier>oai:repo:2</identifier>
        <datestamp>2021-07-01</datestamp>
      </header>
    </record>
    <resumptionToken>token-page-2</resumptionToken>
  </ListRecords>
</OAI-PMH>`

const pageTwo = `<?xml version="1.0" encoding="UTF-8"?>
<OAI-PMH xmlns="http://www.openarchives.org/OAI/2.0/">
  <ListRecords>
    <record>
      <header>
        <identifier>oai:repo:3</identifier>
        <datestamp>2022-01-10</datestamp>
      </header>
      <metadata>
        <oai_dc:dc xmlns:oai_dc="http://www.openarchives.org/OAI/2.0/oai_dc/" xmlns:dc="http://purl.org/dc/elements/1.1/">
          <dc:title>Nursing and SDG 3</dc:title>
        </oai_dc:dc>
      </metadata>
    </record>
    <resumptionToken></resumptionToken>
  </ListRecords>
</OAI-PMH>`

const noRecords = `<?xml version="1.0" encoding="UTF-8"?>
<OAI-PMH xmlns="http://www.openarchives.org/OAI/2.0/">
  <error code="noRecordsMatch">The combination of the values of the from, until, set and metadataPrefix arguments results in an empty list.</error>
</OAI-PMH>`

const badArgument = `<?xml version="1.0" encoding="UTF-8"?>
<OAI-PMH xmlns="http://www.openarchives.org/OAI/2.0/">
  <error code="badArgument">Unsupported metadataPrefix</error>
</OAI-PMH>`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return c, srv
}

func collect(t *testing.T, cur *Cursor) []*Record {
	t.Helper()
	var out []*Record
	for cur.Next(context.Background()) {
		out = append(out, cur.Record())
	}
	if err := cur.Err(); err != nil {
		t.Fatalf("cursor failed: %v", err)
	}
	return out
}

func TestListRecordsFollowsResumptionTokens(t *testing.T) {
	var requests []string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.RawQuery)
		if r.URL.Query().Get("resumptionToken") == "token-page-2" {
			fmt.Fprint(w, pageTwo)
			return
		}
		fmt.Fprint(w, pageOne)
	})

	cur, err := c.ListRecords(context.Background(), ListOptions{})
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}

	records := collect(t, cur)
	if len(records) != 2 {
		t.Fatalf("expected 2 live records across both pages, got %d", len(records))
	}
	if records[0].Identifier != "oai:repo:1" || records[1].Identifier != "oai:repo:3" {
		t.Fatalf("unexpected record identifiers: %q, %q", records[0].Identifier, records[1].Identifier)
	}
	if len(requests) != 2 {
		t.Fatalf("expected 2 page requests, got %d: %v", len(requests), requests)
	}

	// The resumption request must carry only verb and token.
	q := requests[1]
	if q != "resumptionToken=token-page-2&verb=ListRecords" {
		t.Fatalf("unexpected resumption query: %s", q)
	}
}

func TestListRecordsSkipsDeleted(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("resumptionToken") != "" {
			fmt.Fprint(w, pageTwo)
			return
		}
		fmt.Fprint(w, pageOne)
	})

	cur, err := c.ListRecords(context.Background(), ListOptions{})
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	for _, rec := range collect(t, cur) {
		if rec.Identifier == "oai:repo:2" {
			t.Fatal("deleted record must be skipped")
		}
	}
}

func TestRecordMetadataPreservesOrderAndEmptyValues(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("resumptionToken") != "" {
			fmt.Fprint(w, pageTwo)
			return
		}
		fmt.Fprint(w, pageOne)
	})

	cur, err := c.ListRecords(context.Background(), ListOptions{})
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if !cur.Next(context.Background()) {
		t.Fatal("expected a first record")
	}
	rec := cur.Record()

	creators := rec.Values("creator")
	if len(creators) != 2 || creators[0] != "Mwangi, J." || creators[1] != "Otieno, A." {
		t.Fatalf("unexpected creators: %#v", creators)
	}
	idents := rec.Values("identifier")
	if len(idents) != 2 || idents[0] != "oai:repo:1" || idents[1] != "http://repo.example/handle/1" {
		t.Fatalf("identifier order not preserved: %#v", idents)
	}
	descs := rec.Values("description")
	if len(descs) != 1 || descs[0] != "" {
		t.Fatalf("empty element should yield an empty-string value: %#v", descs)
	}
}

func TestListRecordsSendsDateWindow(t *testing.T) {
	var query string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		fmt.Fprint(w, noRecords)
	})

	from := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC)
	cur, err := c.ListRecords(context.Background(), ListOptions{From: from, Until: until})
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if cur.Next(context.Background()) {
		t.Fatal("expected an empty cursor for noRecordsMatch")
	}
	if err := cur.Err(); err != nil {
		t.Fatalf("noRecordsMatch must not be an error: %v", err)
	}

	want := "from=2020-01-01&metadataPrefix=oai_dc&until=2020-12-31&verb=ListRecords"
	if query != want {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", want, query)
	}
}

func TestListRecordsProtocolError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, badArgument)
	})

	_, err := c.ListRecords(context.Background(), ListOptions{})
	if err == nil {
		t.Fatal("expected a protocol error")
	}
	perr, ok := err.(*ProtocolError)
	if !ok {
		t.Fatalf("expected *ProtocolError, got %T: %v", err, err)
	}
	if perr.Code != "badArgument" {
		t.Fatalf("unexpected error code: %s", perr.Code)
	}
}

func TestPaginationFailureSurfacesThroughErr(t *testing.T) {
	var calls int
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("resumptionToken") != "" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, pageOne)
	})
	// Do not burn test time on retries against a server that always fails.
	c.http.RetryMax = 0

	cur, err := c.ListRecords(context.Background(), ListOptions{})
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}

	seen := 0
	for cur.Next(context.Background()) {
		seen++
	}
	if cur.Err() == nil {
		t.Fatal("expected a pagination error from the failed second page")
	}
	if seen != 1 {
		t.Fatalf("expected 1 record before the failure, got %d", seen)
	}
}
