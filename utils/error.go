package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// Version lifecycle errors.
var (
	// returned when a workbook upload targets a version that is no longer PENDING
	ErrorVersionNotIngestable = errors.New("version does not accept uploads")
	// returned when an operation requires an APPROVED version
	ErrorVersionNotApproved = errors.New("version is not approved")
	// returned on writes against a MIGRATED version's staging rows
	ErrorVersionMigrated = errors.New("version already migrated")
)

// Staging integrity errors.
var (
	ErrorDuplicateStagingName = errors.New("duplicate name within version")
	ErrorMissingParent        = errors.New("parent record not found in version")
)

// Job state machine errors.
var (
	ErrorJobTerminal      = errors.New("job already in terminal state")
	ErrorJobNotProcessing = errors.New("job is not processing")
)

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
