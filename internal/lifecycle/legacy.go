package lifecycle

import (
	"strings"

	"github.com/shinyyama/campus-market/internal/apperr"
)

// Older clients speak available/reserved/sold/inactive. The table below is the
// only place that vocabulary exists; nothing past the handler boundary sees it.
var (
	fromLegacy = map[string]Status{
		"available": StatusForSale,
		"reserved":  StatusPending,
		"sold":      StatusSold,
		"inactive":  StatusWithdrawn,
	}
	toLegacy = map[Status]string{
		StatusForSale:   "available",
		StatusPending:   "reserved",
		StatusSold:      "sold",
		StatusCollected: "sold",
		StatusDraft:     "inactive",
		StatusWithdrawn: "inactive",
		StatusSuspended: "inactive",
	}
)

func FromLegacy(raw string) (Status, bool) {
	s, ok := fromLegacy[strings.ToLower(strings.TrimSpace(raw))]
	return s, ok
}

func ToLegacy(s Status) string {
	if v, ok := toLegacy[s]; ok {
		return v
	}
	return "inactive"
}

// ParseAny accepts either vocabulary. Canonical names win on overlap ("sold").
func ParseAny(raw string) (Status, error) {
	if s, err := Parse(raw); err == nil {
		return s, nil
	}
	if s, ok := FromLegacy(raw); ok {
		return s, nil
	}
	return "", apperr.Validation("unknown status %q", raw)
}
