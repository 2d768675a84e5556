package natmap

import (
	"strings"

	"github.com/pkg/errors"
)

// ALL_US_STATES selects every state of US_STATES
const ALL_US_STATES = "ALL"

// US_STATES is processing order of states
var US_STATES = []string{
	"ME", "NH", "VT", "MA", "RI", "CT", "NY", "NJ", "PA", "DE",
	"MD", "DC", "OH", "WV", "VA", "NC", "SC", "MI", "IN", "KY",
	"TN", "GA", "AL", "FL", "MS", "WI", "IL", "MN", "IA", "MO",
	"AR", "LA", "ND", "SD", "NE", "KS", "OK", "TX", "MT", "WY",
	"CO", "NM", "ID", "UT", "AZ", "WA", "OR", "NV", "CA", "AK",
	"HI",
}

var knownStates = func() map[string]struct{} {
	known := make(map[string]struct{}, len(US_STATES))
	for _, st := range US_STATES {
		known[st] = struct{}{}
	}
	return known
}()

// ParseStates turns configuration value ("ALL" or ';' / ',' separated codes) into upper-case state codes.
// Repeated codes are kept once, unknown codes give an error
func ParseStates(values []string) ([]string, error) {
	if len(values) == 0 {
		return US_STATES, nil
	}
	states := []string{}
	seen := make(map[string]struct{})
	for _, value := range values {
		for _, st := range strings.FieldsFunc(value, func(r rune) bool { return r == ';' || r == ',' || r == ' ' }) {
			st = strings.ToUpper(st)
			if st == ALL_US_STATES {
				return US_STATES, nil
			}
			if _, ok := knownStates[st]; !ok {
				return nil, errors.Errorf("unknown state '%s'", st)
			}
			if _, ok := seen[st]; ok {
				continue
			}
			seen[st] = struct{}{}
			states = append(states, st)
		}
	}
	if len(states) == 0 {
		return US_STATES, nil
	}
	return states, nil
}
