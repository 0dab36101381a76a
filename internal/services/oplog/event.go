// Package oplog defines the cache-mutation events recorded by the
// operation log.
package oplog

import "time"

// Op names a cache mutation.
type Op string

const (
	OpSave      Op = "save"
	OpDelete    Op = "delete"
	OpDeleteAll Op = "delete_all"
)

// Event describes one cache mutation: which operation, on which tag,
// by whom, and when.
type Event struct {
	Timestamp int64  `json:"ts"`
	Op        Op     `json:"op"`
	Tag       string `json:"tag,omitempty"`
	Identity  string `json:"identity"`
}

// NewEvent stamps an event with the current time.
func NewEvent(op Op, tag, identity string) Event {
	return Event{
		Timestamp: time.Now().Unix(),
		Op:        op,
		Tag:       tag,
		Identity:  identity,
	}
}
