package models

import "testing"

func TestApprovalStatusTransitions(t *testing.T) {
	cases := []struct {
		from    ApprovalStatus
		to      ApprovalStatus
		allowed bool
	}{
		{ApprovalStatusPending, ApprovalStatusApproved, true},
		{ApprovalStatusPending, ApprovalStatusMigrated, false},
		{ApprovalStatusApproved, ApprovalStatusMigrated, true},
		{ApprovalStatusApproved, ApprovalStatusPending, true},
		{ApprovalStatusMigrated, ApprovalStatusPending, false},
		{ApprovalStatusMigrated, ApprovalStatusApproved, false},
		{ApprovalStatusMigrated, ApprovalStatusMigrated, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Fatalf("%s -> %s = %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestJobStatusTerminalIsWriteOnce(t *testing.T) {
	all := []JobStatus{JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed}
	for _, terminal := range []JobStatus{JobStatusCompleted, JobStatusFailed} {
		if !terminal.Terminal() {
			t.Fatalf("%s should be terminal", terminal)
		}
		for _, next := range all {
			if terminal.CanTransitionTo(next) {
				t.Fatalf("terminal %s must not transition to %s", terminal, next)
			}
		}
	}
	// bounded retry re-enters the running state
	if !JobStatusProcessing.CanTransitionTo(JobStatusProcessing) {
		t.Fatal("PROCESSING -> PROCESSING must be allowed for retries")
	}
	if JobStatusPending.CanTransitionTo(JobStatusCompleted) {
		t.Fatal("PENDING must pass through PROCESSING before COMPLETED")
	}
}

func TestUserRoleValid(t *testing.T) {
	for _, role := range []UserRole{UserRoleAdmin, UserRoleOperator, UserRoleViewer} {
		if !role.Valid() {
			t.Fatalf("%s should be a valid role", role)
		}
	}
	for _, raw := range []UserRole{"", "X", "a", "Admin"} {
		if raw.Valid() {
			t.Fatalf("%q should not be a valid role", raw)
		}
	}
}

func TestParseApprovalStatus(t *testing.T) {
	for _, raw := range []string{"PENDING", "APPROVED", "MIGRATED"} {
		status, err := ParseApprovalStatus(raw)
		if err != nil {
			t.Fatalf("%q should parse: %v", raw, err)
		}
		if string(status) != raw {
			t.Fatalf("parsed %q as %q", raw, status)
		}
	}
	for _, raw := range []string{"", "pending", "DRAFT"} {
		if _, err := ParseApprovalStatus(raw); err == nil {
			t.Fatalf("%q should be rejected", raw)
		}
	}
}

func TestParseJobType(t *testing.T) {
	if _, err := ParseJobType("EXCEL_IMPORT"); err != nil {
		t.Fatalf("EXCEL_IMPORT should parse: %v", err)
	}
	if _, err := ParseJobType("excel_import"); err == nil {
		t.Fatal("lowercase job type should be rejected")
	}
	if _, err := ParseJobType(""); err == nil {
		t.Fatal("empty job type should be rejected")
	}
}
