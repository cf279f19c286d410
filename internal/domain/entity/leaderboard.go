package entity

// LeaderboardEntry is a derived, read-mostly projection keyed by device id.
// Rank positions are recomputed by the storage layer's ranking query on every
// read; the telemetry pipeline only affects it by writing device rows.
type LeaderboardEntry struct {
	ID          string `json:"id"` // Device id.
	Position    int64  `json:"position"`
	AvgPosition int64  `json:"avg_position"`

	Device *Device `json:"devices,omitempty"`
}
