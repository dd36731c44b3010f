package events

// Topic constants for domain events emitted by the platform.
const (
	TopicOrderCreated = "order.created"
	TopicOrderUpdated = "order.updated"
	TopicOrderDeleted = "order.deleted"
	TopicRatesUpdated = "rates.updated"
)
