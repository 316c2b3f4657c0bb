package cmd

import (
	"strings"
	"testing"
)

func TestParseHarvestWindow(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		until   string
		wantErr string
	}{
		{"both empty", "", "", ""},
		{"only from", "2024-01-01", "", ""},
		{"only until", "", "2024-12-31", ""},
		{"valid window", "2024-01-01", "2024-12-31", ""},
		{"same day window", "2024-06-15", "2024-06-15", ""},
		{"bad from format", "01/01/2024", "", "invalid --from date format"},
		{"bad until format", "", "2024-13-99", "invalid --until date format"},
		{"from after until", "2024-12-31", "2024-01-01", "--from date cannot be after --until date"},
	}
	for _, tt := range tests {
		from, until, err := parseHarvestWindow(tt.from, tt.until)
		if tt.wantErr == "" {
			if err != nil {
				t.Fatalf("%s: unexpected error: %v", tt.name, err)
			}
			if tt.from != "" && from.Format("2006-01-02") != tt.from {
				t.Fatalf("%s: from parsed as %v", tt.name, from)
			}
			if tt.until != "" && until.Format("2006-01-02") != tt.until {
				t.Fatalf("%s: until parsed as %v", tt.name, until)
			}
			if tt.from == "" && !from.IsZero() {
				t.Fatalf("%s: empty from must stay zero", tt.name)
			}
			continue
		}
		if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
			t.Fatalf("%s: expected error containing %q, got %v", tt.name, tt.wantErr, err)
		}
	}
}
