package models

import "strings"

// Trigger declares the condition under which a workflow run starts: an event
// type plus optional branch filters. A trigger is evaluated once per incoming
// event and never mutated.
type Trigger struct {
	Event    string   `yaml:"event"              json:"event"              validate:"required"`
	Branches []string `yaml:"branches,omitempty" json:"branches,omitempty"`
}

// Matches reports whether the event satisfies the trigger. The event type
// must match exactly; when branch filters are declared, at least one must
// match the event branch. Filters support a trailing "*" wildcard
// (e.g. "release/*").
func (t *Trigger) Matches(event Event) bool {
	if t == nil || t.Event != event.Type {
		return false
	}

	if len(t.Branches) == 0 {
		return true
	}

	for _, filter := range t.Branches {
		if matchBranch(event.Branch, filter) {
			return true
		}
	}

	return false
}

func matchBranch(branch, filter string) bool {
	if filter == "*" {
		return true
	}

	if prefix, ok := strings.CutSuffix(filter, "*"); ok {
		return strings.HasPrefix(branch, prefix)
	}

	return branch == filter
}
