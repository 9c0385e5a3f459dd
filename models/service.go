package models

// Service is an immutable catalog entry for a bookable offering,
// e.g. a 30-minute cold plunge visit or a 45-minute infrared sauna session.
type Service struct {
	ID              string `bson:"id" json:"id"`
	Name            string `bson:"name" json:"name"`
	DurationMinutes int    `bson:"durationMinutes" json:"durationMinutes"`
	BasePriceCents  int64  `bson:"basePriceCents" json:"basePriceCents"`
	Active          bool   `bson:"active" json:"active"`
	// Version is bumped on every price change; quotes snapshot it so the
	// orchestrator can detect drift before charging.
	Version int `bson:"version" json:"version"`
}
