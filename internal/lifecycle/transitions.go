package lifecycle

import (
	"strings"

	"github.com/shinyyama/campus-market/internal/apperr"
)

// Actor is a bit set of the roles a caller holds relative to one item.
type Actor uint8

const (
	ActorSeller Actor = 1 << iota
	ActorBuyer
	ActorAdmin
	// ActorSettlement is the payment pipeline. No HTTP caller ever holds it.
	ActorSettlement
	// ActorCheckout reserves and releases items for legacy orders.
	ActorCheckout
)

func (a Actor) Has(other Actor) bool { return a&other != 0 }

func (a Actor) String() string {
	if a == 0 {
		return "none"
	}
	var parts []string
	names := []struct {
		bit  Actor
		name string
	}{
		{ActorSeller, "seller"},
		{ActorBuyer, "buyer"},
		{ActorAdmin, "admin"},
		{ActorSettlement, "settlement"},
		{ActorCheckout, "checkout"},
	}
	for _, n := range names {
		if a.Has(n.bit) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

type edge struct {
	from, to Status
}

var transitions = map[edge]Actor{
	{StatusDraft, StatusPending}:       ActorSeller,
	{StatusPending, StatusForSale}:     ActorAdmin | ActorCheckout,
	{StatusPending, StatusDraft}:       ActorAdmin | ActorSeller,
	{StatusPending, StatusSold}:        ActorSettlement,
	{StatusForSale, StatusPending}:     ActorAdmin | ActorSeller | ActorCheckout,
	{StatusForSale, StatusWithdrawn}:   ActorSeller | ActorAdmin,
	{StatusForSale, StatusSold}:        ActorSettlement,
	{StatusSold, StatusCollected}:      ActorBuyer,
	{StatusWithdrawn, StatusDraft}:     ActorSeller,
	{StatusSuspended, StatusForSale}:   ActorAdmin,
	{StatusSuspended, StatusWithdrawn}: ActorAdmin,
}

// overrideTargets are the statuses an admin may force from any unsettled state.
var overrideTargets = map[Status]bool{
	StatusDraft:     true,
	StatusPending:   true,
	StatusForSale:   true,
	StatusWithdrawn: true,
	StatusSuspended: true,
}

// Check validates a regular transition. A missing edge is ErrInvalidTransition;
// an existing edge the caller may not take is ErrForbidden.
func Check(from, to Status, actor Actor) error {
	if !from.Valid() || !to.Valid() || from == to {
		return apperr.Transition(from.String(), to.String())
	}
	allowed, ok := transitions[edge{from, to}]
	if !ok {
		return apperr.Transition(from.String(), to.String())
	}
	if !actor.Has(allowed) {
		return apperr.ErrForbidden
	}
	return nil
}

// CheckOverride validates an admin moderation override. Settled items stay
// settled and sold is never a valid override target.
func CheckOverride(from, to Status) error {
	if !from.Valid() || !overrideTargets[to] || from == to {
		return apperr.Transition(from.String(), to.String())
	}
	if from.Settled() {
		return apperr.Transition(from.String(), to.String())
	}
	return nil
}

// Allowed lists the statuses reachable from s by actor.
func Allowed(s Status, actor Actor) []Status {
	var out []Status
	for _, to := range allStatuses {
		if allowed, ok := transitions[edge{s, to}]; ok && actor.Has(allowed) {
			out = append(out, to)
		}
	}
	return out
}
