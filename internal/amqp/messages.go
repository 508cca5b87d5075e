package amqp

import (
	"encoding/json"
	"fmt"

	"spendly/internal/core"
)

// RoutingKey is "expense.created", "expense.updated" or "expense.deleted".
// Consumers bind with "expense.*" to receive all of them.
func RoutingKey(ev core.ExpenseEvent) string {
	return string(ev.Type)
}

func EncodeEvent(ev core.ExpenseEvent) ([]byte, error) {
	return json.Marshal(ev)
}

// DecodeEvent parses a message body and rejects unknown event types.
func DecodeEvent(body []byte) (core.ExpenseEvent, error) {
	var ev core.ExpenseEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return ev, err
	}
	switch ev.Type {
	case core.ExpenseCreated, core.ExpenseUpdated, core.ExpenseDeleted:
	default:
		return ev, fmt.Errorf("unknown event type %q", ev.Type)
	}
	if ev.ExpenseID == "" {
		return ev, fmt.Errorf("event without expense id")
	}
	return ev, nil
}
