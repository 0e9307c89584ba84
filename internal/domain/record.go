package domain

import (
	"encoding/json"
	"time"
)

// RecordKind names a collection of trip-scoped records.
// The values double as the HTTP path segment.
type RecordKind string

const (
	RecordKindDocument         RecordKind = "documents"
	RecordKindInsurance        RecordKind = "insurance"
	RecordKindTransport        RecordKind = "transport"
	RecordKindEmergencyContact RecordKind = "emergencyContact"
	RecordKindPhotoNote        RecordKind = "photoNotes"
)

// RecordKinds lists every supported kind in a stable order.
var RecordKinds = []RecordKind{
	RecordKindDocument,
	RecordKindInsurance,
	RecordKindTransport,
	RecordKindEmergencyContact,
	RecordKindPhotoNote,
}

// Valid reports whether k is a known record kind.
func (k RecordKind) Valid() bool {
	for _, known := range RecordKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Record is a trip-scoped record. Fields holds the kind-specific JSON object.
type Record struct {
	ID     RecordID
	TripID TripID
	Kind   RecordKind

	Fields json.RawMessage

	CreatedAt time.Time
	UpdatedAt time.Time
}
