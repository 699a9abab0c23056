package callsign

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		id   string
		want Kind
	}{
		{"UAE215", KindFlightNumber},
		{"swa1234", KindFlightNumber},
		{"N123AB", KindTailNumber},
		{"N12345", KindTailNumber},
		{"C-FKWZ", KindTailNumber},
		{"heavy", KindUnknown},
		{"", KindUnknown},
	}
	for _, tt := range tests {
		if got := Classify(tt.id); got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		spoken string
		want   string
	}{
		{"Emirates 215", "UAE215"},
		{"Southwest 578", "SWA578"},
		{"Delta 100", "DAL100"},
		{"UAE215", "UAE215"},
		{"N 1 2 3 A B", "N123AB"},
		{"good morning", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Canonical(tt.spoken); got != tt.want {
			t.Errorf("Canonical(%q) = %q, want %q", tt.spoken, got, tt.want)
		}
	}
}
