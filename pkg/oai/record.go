package oai

import (
	"encoding/xml"
	"strings"
)

// Record is one harvested item: a stable remote identifier plus the raw
// multi-valued Dublin Core metadata map. Values keep their document order;
// an empty string marks a field the repository emitted as an empty element.
type Record struct {
	Identifier string
	Datestamp  string
	Deleted    bool
	Metadata   map[string][]string
}

// Values returns all raw values for a Dublin Core field ("title", "creator",
// "identifier", ...), or nil if the field is absent.
func (r *Record) Values(field string) []string {
	return r.Metadata[field]
}

// pmhResponse is the OAI-PMH envelope for a ListRecords response.
type pmhResponse struct {
	XMLName xml.Name   `xml:"OAI-PMH"`
	Errors  []pmhError `xml:"error"`

	ListRecords struct {
		Records         []xmlRecord `xml:"record"`
		ResumptionToken string      `xml:"resumptionToken"`
	} `xml:"ListRecords"`
}

type pmhError struct {
	Code    string `xml:"code,attr"`
	Message string `xml:",chardata"`
}

// ProtocolError is an OAI-PMH <error> condition reported by the repository.
type ProtocolError struct {
	Code    string
	Message string
}

func (e *ProtocolError) Error() string {
	return "oai: protocol error " + e.Code + ": " + e.Message
}

type xmlRecord struct {
	Header struct {
		Status     string `xml:"status,attr"`
		Identifier string `xml:"identifier"`
		Datestamp  string `xml:"datestamp"`
	} `xml:"header"`
	Metadata struct {
		DC struct {
			Fields []dcField `xml:",any"`
		} `xml:"dc"`
	} `xml:"metadata"`
}

// dcField captures any element inside oai_dc:dc; the local name is the
// Dublin Core field name (title, creator, date, identifier, type, ...).
type dcField struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

func (x *xmlRecord) toRecord() *Record {
	rec := &Record{
		Identifier: strings.TrimSpace(x.Header.Identifier),
		Datestamp:  strings.TrimSpace(x.Header.Datestamp),
		Deleted:    x.Header.Status == "deleted",
		Metadata:   make(map[string][]string),
	}
	for _, f := range x.Metadata.DC.Fields {
		name := f.XMLName.Local
		rec.Metadata[name] = append(rec.Metadata[name], strings.TrimSpace(f.Value))
	}
	return rec
}
