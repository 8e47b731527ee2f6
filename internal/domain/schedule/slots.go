// Package schedule parses a doctor's declared availability into normalized,
// comparable slot tokens.
//
// Availability is stored as free text: a comma-separated list of
// "HH:MM-HH:MM" ranges, e.g. "10:00-11:00,11:00-12:00". Each token is one
// atomic bookable unit — a range is never subdivided into finer slots.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

// Normalize splits raw availability on commas, trims whitespace, drops
// empty tokens and zero-pads the clock components of each well-formed
// token. Input order is preserved and duplicates are kept: duplicate
// declarations are a data-quality issue for the directory, not something
// the catalog rejects. Tokens that do not parse as HH:MM-HH:MM pass
// through trimmed but otherwise untouched (they can never match a
// normalized candidate, so they are simply unbookable).
//
// Normalize is idempotent: Normalize(join(Normalize(raw))) == Normalize(raw).
func Normalize(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	tokens := strings.Split(raw, ",")
	slots := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		slots = append(slots, normalizeToken(tok))
	}
	if len(slots) == 0 {
		return nil
	}
	return slots
}

// Contains reports whether candidate, after normalization, matches one of
// the already-normalized slots exactly.
func Contains(slots []string, candidate string) bool {
	want := normalizeToken(strings.TrimSpace(candidate))
	for _, s := range slots {
		if s == want {
			return true
		}
	}
	return false
}

// Start returns the opening clock time of a slot token. It is used to
// combine a calendar date with a slot into a single instant.
func Start(slot string) (hour, minute int, err error) {
	start, _, ok := strings.Cut(strings.TrimSpace(slot), "-")
	if !ok {
		return 0, 0, fmt.Errorf("malformed slot %q: missing range separator", slot)
	}
	hour, minute, ok = parseClock(strings.TrimSpace(start))
	if !ok {
		return 0, 0, fmt.Errorf("malformed slot %q: invalid start time", slot)
	}
	return hour, minute, nil
}

func normalizeToken(tok string) string {
	start, end, ok := strings.Cut(tok, "-")
	if !ok {
		return tok
	}
	sh, sm, okStart := parseClock(strings.TrimSpace(start))
	eh, em, okEnd := parseClock(strings.TrimSpace(end))
	if !okStart || !okEnd {
		return tok
	}
	return fmt.Sprintf("%02d:%02d-%02d:%02d", sh, sm, eh, em)
}

func parseClock(s string) (hour, minute int, ok bool) {
	h, m, found := strings.Cut(s, ":")
	if !found {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}
	minute, err = strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}
