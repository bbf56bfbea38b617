package models

import (
	"errors"
)

// ApprovalStatus is the lifecycle of a workspace version.
//
//	PENDING -(approve)-> APPROVED -(promote)-> MIGRATED
//	   ^                    |
//	   +------(reject)------+
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "PENDING"
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusMigrated ApprovalStatus = "MIGRATED"
)

func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalStatusPending, ApprovalStatusApproved, ApprovalStatusMigrated:
		return true
	}
	return false
}

// CanTransitionTo enforces the forward-only approval flow; the only
// backward edge is APPROVED -> PENDING (rejection).
func (s ApprovalStatus) CanTransitionTo(next ApprovalStatus) bool {
	switch s {
	case ApprovalStatusPending:
		return next == ApprovalStatusApproved
	case ApprovalStatusApproved:
		return next == ApprovalStatusMigrated || next == ApprovalStatusPending
	case ApprovalStatusMigrated:
		return false
	}
	return false
}

func ParseApprovalStatus(raw string) (ApprovalStatus, error) {
	s := ApprovalStatus(raw)
	if !s.Valid() {
		return "", errors.New("invalid approval status")
	}
	return s, nil
}

// JobStatus is the state machine of one asynchronous unit of work.
//
//	PENDING -> PROCESSING -> COMPLETED
//	                     \-> FAILED
type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransitionTo: terminal states are write-once; PROCESSING -> PROCESSING
// is allowed so a bounded retry can re-enter the running state.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	switch s {
	case JobStatusPending:
		return next == JobStatusProcessing || next == JobStatusFailed
	case JobStatusProcessing:
		return next == JobStatusProcessing || next == JobStatusCompleted || next == JobStatusFailed
	case JobStatusCompleted, JobStatusFailed:
		return false
	}
	return false
}

func ParseJobStatus(raw string) (JobStatus, error) {
	s := JobStatus(raw)
	if !s.Valid() {
		return "", errors.New("invalid job status")
	}
	return s, nil
}

type JobType string

const (
	JobTypeExcelImport JobType = "EXCEL_IMPORT"
	JobTypePromotion   JobType = "PROMOTION"
	JobTypeWebCrawling JobType = "WEB_CRAWLING"
)

func (t JobType) Valid() bool {
	switch t {
	case JobTypeExcelImport, JobTypePromotion, JobTypeWebCrawling:
		return true
	}
	return false
}

func ParseJobType(raw string) (JobType, error) {
	t := JobType(raw)
	if !t.Valid() {
		return "", errors.New("invalid job type")
	}
	return t, nil
}

type UserRole string

const (
	UserRoleAdmin    UserRole = "A"
	UserRoleOperator UserRole = "O"
	UserRoleViewer   UserRole = "V"
)

func (r UserRole) Valid() bool {
	switch r {
	case UserRoleAdmin, UserRoleOperator, UserRoleViewer:
		return true
	}
	return false
}

func (r UserRole) Name() string {
	switch r {
	case UserRoleAdmin:
		return "Admin"
	case UserRoleOperator:
		return "Operator"
	case UserRoleViewer:
		return "Viewer"
	}
	return string(r)
}

type DiscountType string

const (
	DiscountTypeRate   DiscountType = "RATE"
	DiscountTypeAmount DiscountType = "AMOUNT"
)

func (t DiscountType) Valid() bool {
	return t == DiscountTypeRate || t == DiscountTypeAmount
}
