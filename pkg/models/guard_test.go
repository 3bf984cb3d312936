package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuard_Evaluate(t *testing.T) {
	tests := []struct {
		name  string
		guard *Guard
		event Event
		want  bool
	}{
		{
			name:  "nil guard always holds",
			guard: nil,
			event: Event{Repository: "other/repo"},
			want:  true,
		},
		{
			name:  "repository match",
			guard: &Guard{Repository: "org/repo"},
			event: Event{Repository: "org/repo"},
			want:  true,
		},
		{
			name:  "repository mismatch",
			guard: &Guard{Repository: "org/repo"},
			event: Event{Repository: "fork/repo"},
			want:  false,
		},
		{
			name:  "branch mismatch",
			guard: &Guard{Repository: "org/repo", Branch: "main"},
			event: Event{Repository: "org/repo", Branch: "develop"},
			want:  false,
		},
		{
			name:  "payload condition match",
			guard: &Guard{Conditions: map[string]string{"actor": "bot"}},
			event: Event{Payload: map[string]any{"actor": "bot"}},
			want:  true,
		},
		{
			name:  "payload condition missing field",
			guard: &Guard{Conditions: map[string]string{"actor": "bot"}},
			event: Event{Payload: map[string]any{}},
			want:  false,
		},
		{
			name:  "payload condition non-string value",
			guard: &Guard{Conditions: map[string]string{"attempt": "1"}},
			event: Event{Payload: map[string]any{"attempt": 1}},
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.guard.Evaluate(tt.event))
		})
	}
}
