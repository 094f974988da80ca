// Package system provides the real UTC clock.
package system

import (
	"time"

	"github.com/policylab/policyscrape/internal/policy"
)

// Clock implements policy.Clock using time.Now.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current UTC time.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}

// Today returns the current UTC calendar date in snapshot-file form.
func (c Clock) Today() string {
	return c.Now().Format(policy.SnapshotDateLayout)
}
