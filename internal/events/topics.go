package events

import "strings"

// Topic constants for domain events emitted by the platform.
const (
	TopicOrderCreated       = "order.created"
	TopicOrderPaid          = "order.paid"
	TopicOrderCanceled      = "order.canceled"
	TopicOrderStatusChanged = "order.status_changed"
	TopicDiscountRedeemed   = "discount.redeemed"
)

// DefaultTopics returns the canonical list of topics handled by the worker.
func DefaultTopics() []string {
	return []string{
		TopicOrderCreated,
		TopicOrderPaid,
		TopicOrderCanceled,
		TopicOrderStatusChanged,
		TopicDiscountRedeemed,
	}
}

// TaskType maps a topic to the background task type that carries it, e.g. order.created -> order:created.
func TaskType(topic string) string {
	return strings.ReplaceAll(strings.TrimSpace(topic), ".", ":")
}
