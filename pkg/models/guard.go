package models

import "fmt"

// Guard is a precondition predicate evaluated after the trigger matched but
// before any step runs. A false guard skips the run; it never fails it.
type Guard struct {
	// Repository, when set, requires an exact match against the event's
	// repository identifier.
	Repository string `yaml:"repository,omitempty" json:"repository,omitempty"`

	// Branch, when set, requires an exact match against the event branch.
	Branch string `yaml:"branch,omitempty" json:"branch,omitempty"`

	// Conditions are additional equality checks against event payload fields.
	Conditions map[string]string `yaml:"conditions,omitempty" json:"conditions,omitempty"`
}

// Evaluate reports whether the guard holds for the event. A nil guard always
// holds.
func (g *Guard) Evaluate(event Event) bool {
	if g == nil {
		return true
	}

	if g.Repository != "" && g.Repository != event.Repository {
		return false
	}

	if g.Branch != "" && g.Branch != event.Branch {
		return false
	}

	for field, want := range g.Conditions {
		got, exists := event.Payload[field]
		if !exists {
			return false
		}

		if fmt.Sprintf("%v", got) != want {
			return false
		}
	}

	return true
}
