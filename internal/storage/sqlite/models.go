package sqlite

import "time"

// TransmissionRecord is one parsed transmission as stored.
type TransmissionRecord struct {
	ID          string    `json:"id"`
	Content     string    `json:"content"`
	Normalized  string    `json:"normalized"`
	LogicalForm string    `json:"logical_form"`
	FrameJSON   string    `json:"frame"`
	Callsign    string    `json:"callsign,omitempty"`
	Segments    int       `json:"segments"`
	ParseMillis int64     `json:"parse_ms"`
	CreatedAt   time.Time `json:"created_at"`
}
