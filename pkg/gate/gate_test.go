package gate

import (
	"testing"
)

func TestGate_Allowed(t *testing.T) {
	tests := []struct {
		name       string
		expression string
		env        map[string]any
		want       bool
	}{
		{
			name:       "empty expression always passes",
			expression: "",
			env:        nil,
			want:       true,
		},
		{
			name:       "boolean chain passes",
			expression: "globals.enabled && page.allowed",
			env: map[string]any{
				"globals": map[string]any{"enabled": true},
				"page":    map[string]any{"allowed": true},
			},
			want: true,
		},
		{
			name:       "boolean chain fails",
			expression: "globals.enabled && page.allowed",
			env: map[string]any{
				"globals": map[string]any{"enabled": true},
				"page":    map[string]any{"allowed": false},
			},
			want: false,
		},
		{
			name:       "missing environment closes the gate",
			expression: "globals.enabled",
			env:        map[string]any{},
			want:       false,
		},
		{
			name:       "compile error closes the gate",
			expression: "globals.enabled &&",
			env:        map[string]any{"globals": map[string]any{"enabled": true}},
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(tt.expression)
			if got := g.Allowed(tt.env); got != tt.want {
				t.Errorf("Allowed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGate_Evaluate_NonBoolean(t *testing.T) {
	g := New(`"yes"`)
	if _, err := g.Evaluate(map[string]any{}); err == nil {
		t.Error("Evaluate() expected error for non-boolean expression")
	}
}
