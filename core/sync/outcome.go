package sync

// Outcome classifies the result of synchronizing one table. A
// synchronization call either completes and reports exactly one
// outcome or fails with an error, never both.
type Outcome int

const (
	// AlreadyInSync reports that the live table already matched the
	// declared schema and no statement was issued.
	AlreadyInSync Outcome = iota
	// NewTableCreated reports that the table did not exist and was
	// created from the declared schema.
	NewTableCreated
	// OldColumnsRemoved reports that the live table carried columns
	// the mapping does not declare.
	OldColumnsRemoved
	// NewColumnsAdded reports that declared columns missing from the
	// live table were appended.
	NewColumnsAdded
	// NewColumnsAddedAndOldColumnsRemoved reports both of the previous
	// conditions at once.
	NewColumnsAddedAndOldColumnsRemoved
	// DroppedAndRecreated reports a full rebuild of the table.
	DroppedAndRecreated
)

// String returns a human-readable form for logs and CLI output.
func (o Outcome) String() string {
	switch o {
	case AlreadyInSync:
		return "already in sync"
	case NewTableCreated:
		return "new table created"
	case OldColumnsRemoved:
		return "old columns removed"
	case NewColumnsAdded:
		return "new columns added"
	case NewColumnsAddedAndOldColumnsRemoved:
		return "new columns added and old columns removed"
	case DroppedAndRecreated:
		return "dropped and recreated"
	default:
		return "unknown"
	}
}
