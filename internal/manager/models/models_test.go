package models

import "testing"

func TestJobStatusTransitions(t *testing.T) {
	tests := []struct {
		name        string
		from        JobStatus
		to          JobStatus
		allowed     bool
		description string
	}{
		{
			name:        "pending to processing",
			from:        JobStatusPending,
			to:          JobStatusProcessing,
			allowed:     true,
			description: "dispatch starts the job",
		},
		{
			name:        "pending straight to failed",
			from:        JobStatusPending,
			to:          JobStatusFailed,
			allowed:     true,
			description: "a job can fail before it starts",
		},
		{
			name:        "processing to completed",
			from:        JobStatusProcessing,
			to:          JobStatusCompleted,
			allowed:     true,
			description: "clean finish",
		},
		{
			name:        "processing to partially completed",
			from:        JobStatusProcessing,
			to:          JobStatusPartiallyCompleted,
			allowed:     true,
			description: "finish with recorded failures",
		},
		{
			name:        "completed is terminal",
			from:        JobStatusCompleted,
			to:          JobStatusProcessing,
			allowed:     false,
			description: "terminal statuses never transition",
		},
		{
			name:        "failed is terminal",
			from:        JobStatusFailed,
			to:          JobStatusPending,
			allowed:     false,
			description: "terminal statuses never transition",
		},
		{
			name:        "pending cannot skip to completed",
			from:        JobStatusPending,
			to:          JobStatusCompleted,
			allowed:     false,
			description: "completion requires processing first",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.allowed {
				t.Errorf("CanTransition(%s -> %s) = %v, want %v (%s)",
					tt.from, tt.to, got, tt.allowed, tt.description)
			}
		})
	}
}

func TestLogicalUnit_Empty(t *testing.T) {
	tests := []struct {
		text  string
		empty bool
	}{
		{"", true},
		{"  \t\n\r  ", true},
		{"x", false},
		{"  content  ", false},
	}
	for _, tt := range tests {
		unit := LogicalUnit{Text: tt.text}
		if unit.Empty() != tt.empty {
			t.Errorf("Empty(%q) = %v, want %v", tt.text, unit.Empty(), tt.empty)
		}
	}
}
