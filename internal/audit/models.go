// Package audit records bond lifecycle events. Emission is best effort: a
// failed or dropped event never fails the request that produced it.
package audit

import (
	"time"
)

type EventType string

const (
	EventBondCreated EventType = "bond.created"
	EventBondDeleted EventType = "bond.deleted"
)

// Event describes one change to an owner's bonds.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	OwnerID   string    `json:"owner_id"`
	ISIN      string    `json:"isin"`
	LEI       string    `json:"lei,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
