package domain

// Blob names, also used as metric labels.
const (
	BlobExpiring   = "expiring"
	BlobPersistent = "persistent"
)

// What cleared expired content.
const (
	ExpiryTriggerRead  = "read"
	ExpiryTriggerSweep = "sweep"
)

// PasteRecorder observes changes to the shared record.
type PasteRecorder interface {
	RecordUpdate(blob string, size int)
	RecordExpiration(trigger string)
}
