// Package lifecycle is the item status state machine: the status enum, the
// transition table and the actor rules that gate each edge.
package lifecycle

import (
	"strings"

	"github.com/shinyyama/campus-market/internal/apperr"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusForSale   Status = "for-sale"
	StatusSold      Status = "sold"
	StatusWithdrawn Status = "withdrawn"
	StatusCollected Status = "collected"
	// StatusSuspended is only reachable through admin moderation.
	StatusSuspended Status = "suspended"
)

var allStatuses = []Status{
	StatusDraft,
	StatusPending,
	StatusForSale,
	StatusSold,
	StatusWithdrawn,
	StatusCollected,
	StatusSuspended,
}

func All() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

func (s Status) Valid() bool {
	for _, v := range allStatuses {
		if v == s {
			return true
		}
	}
	return false
}

func (s Status) String() string { return string(s) }

// Purchasable reports whether the item may sit in a cart or be settled.
func (s Status) Purchasable() bool { return s == StatusForSale }

// Settled reports whether a payment has been honored for the item.
func (s Status) Settled() bool { return s == StatusSold || s == StatusCollected }

// RequiresBuyer is true for statuses where buyerId must be set.
func (s Status) RequiresBuyer() bool { return s.Settled() }

// ForbidsBuyer is true for statuses where buyerId must be empty. Pending
// allows both: a submitted listing has no buyer, a reserved one does.
func (s Status) ForbidsBuyer() bool {
	switch s {
	case StatusDraft, StatusForSale, StatusWithdrawn, StatusSuspended:
		return true
	}
	return false
}

// Parse accepts only the canonical vocabulary. Legacy callers go through
// FromLegacy.
func Parse(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", apperr.Validation("unknown status %q", raw)
	}
	return s, nil
}

// LeavesMarket reports whether moving from -> to takes a purchasable item off
// the market, which obliges a cart purge.
func LeavesMarket(from, to Status) bool {
	return from.Purchasable() && !to.Purchasable()
}
