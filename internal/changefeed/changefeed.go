// Package changefeed notifies subscribers that rows of a table changed.
// Events identify the row but carry no diff; subscribers re-read what they need.
package changefeed

import (
	"context"
	"time"
)

// TablePrintJobs is the table name used for print job events.
const TablePrintJobs = "print_jobs"

type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
)

// Event announces a change to one row.
type Event struct {
	Table string    `json:"table"`
	Type  EventType `json:"type"`
	RowID string    `json:"row_id"`
	At    time.Time `json:"at"`
}

// Publisher announces row changes.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Subscription is an open subscription. Close stops delivery; it is safe to call more than once.
type Subscription interface {
	Close() error
}

// Subscriber opens subscriptions to a table's events. fn is called from a
// goroutine owned by the subscription, one event at a time.
type Subscriber interface {
	Subscribe(ctx context.Context, table string, fn func(Event)) (Subscription, error)
}

// Feed is both ends of a change feed.
type Feed interface {
	Publisher
	Subscriber
	Close() error
}
