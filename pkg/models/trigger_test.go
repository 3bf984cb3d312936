package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrigger_Matches(t *testing.T) {
	tests := []struct {
		name    string
		trigger *Trigger
		event   Event
		want    bool
	}{
		{
			name:    "event type and branch match",
			trigger: &Trigger{Event: "push", Branches: []string{"main"}},
			event:   Event{Type: "push", Branch: "main"},
			want:    true,
		},
		{
			name:    "event type mismatch",
			trigger: &Trigger{Event: "push", Branches: []string{"main"}},
			event:   Event{Type: "pull_request", Branch: "main"},
			want:    false,
		},
		{
			name:    "branch mismatch",
			trigger: &Trigger{Event: "push", Branches: []string{"main"}},
			event:   Event{Type: "push", Branch: "develop"},
			want:    false,
		},
		{
			name:    "no branch filters matches any branch",
			trigger: &Trigger{Event: "push"},
			event:   Event{Type: "push", Branch: "feature/x"},
			want:    true,
		},
		{
			name:    "wildcard filter",
			trigger: &Trigger{Event: "push", Branches: []string{"release/*"}},
			event:   Event{Type: "push", Branch: "release/1.2"},
			want:    true,
		},
		{
			name:    "wildcard filter mismatch",
			trigger: &Trigger{Event: "push", Branches: []string{"release/*"}},
			event:   Event{Type: "push", Branch: "main"},
			want:    false,
		},
		{
			name:    "bare star matches everything",
			trigger: &Trigger{Event: "push", Branches: []string{"*"}},
			event:   Event{Type: "push", Branch: "anything"},
			want:    true,
		},
		{
			name:    "second filter matches",
			trigger: &Trigger{Event: "push", Branches: []string{"main", "develop"}},
			event:   Event{Type: "push", Branch: "develop"},
			want:    true,
		},
		{
			name:    "nil trigger never matches",
			trigger: nil,
			event:   Event{Type: "push", Branch: "main"},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.trigger.Matches(tt.event))
		})
	}
}
