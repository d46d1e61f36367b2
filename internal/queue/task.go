package queue

// Stream names for the classification pipeline. Failed messages that exhaust
// their attempts land on the DLQ stream for manual inspection.
const (
	EventStream = "switchyard_events"
	DLQStream   = "switchyard_events_dlq"

	ConsumerGroup = "switchyard_workers"
)
