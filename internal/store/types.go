package store

import "github.com/takurot/baseball-speedgun/internal/domain"

// ReadingResult reports the outcome of a reading submission.
type ReadingResult struct {
	// Player is the aggregate after the write.
	Player domain.Player
	// Record is the date-record after the write. Its speed may exceed
	// the submitted one when a faster reading already existed.
	Record domain.DateRecord
	// RecordCreated is true when no record existed for the date.
	RecordCreated bool
	// RecordChanged is true when the record was created or its speed raised.
	RecordChanged bool
}

// DeleteRecordResult reports the outcome of a record deletion.
type DeleteRecordResult struct {
	// Deleted is the removed record, kept around for undo.
	Deleted domain.DateRecord
	// Player is the recomputed aggregate, or nil when the last record
	// was removed and the aggregate cascaded away.
	Player *domain.Player
}
