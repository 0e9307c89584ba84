package domain

// UserID is an internal identifier for a user record. It is also the subject of issued tokens.
type UserID string

// TripID is an internal identifier for a trip record.
type TripID string

// ItemID identifies an itinerary item within its trip.
type ItemID string

// RecordID is an internal identifier for a trip-scoped record (document, insurance, ...).
type RecordID string
