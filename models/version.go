package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/catalog_backend/config"
	"bitbucket.org/mmdatafocus/catalog_backend/utils"
	"gorm.io/gorm"
)

// Version is the workspace container for one staged catalog snapshot.
// Aggregate counts are derived on read from the staging tables, never stored.
type Version struct {
	ID             int            `gorm:"primary_key" json:"id"`
	Name           string         `gorm:"size:100;not null;unique" json:"name" binding:"required"`
	Description    string         `gorm:"size:500" json:"description"`
	ApprovalStatus ApprovalStatus `gorm:"size:20;not null;default:PENDING" json:"approval_status"`
	RejectionNote  string         `gorm:"size:500" json:"rejection_note"`
	CreatedBy      string         `gorm:"size:100" json:"created_by"`
	ApprovedBy     string         `gorm:"size:100" json:"approved_by"`
	ApprovedAt     *time.Time     `json:"approved_at"`
	MigratedAt     *time.Time     `json:"migrated_at"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewVersion struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// VersionStats are derived from the staging tables on every read.
type VersionStats struct {
	BrandCount       int64 `json:"brand_count"`
	VehicleLineCount int64 `json:"vehicle_line_count"`
	ModelCount       int64 `json:"model_count"`
	TrimCount        int64 `json:"trim_count"`
	OptionCount      int64 `json:"option_count"`
}

type VersionWithStats struct {
	Version
	Stats VersionStats `json:"stats"`
}

func (input *NewVersion) validate(ctx context.Context, id int) error {
	if err := utils.ValidateUnique[Version](ctx, 0, "name", input.Name, id); err != nil {
		return err
	}
	return nil
}

func CreateVersion(ctx context.Context, input *NewVersion) (*Version, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	createdBy, _ := utils.GetUserNameFromContext(ctx)

	db := config.GetDB()
	version := Version{
		Name:           input.Name,
		Description:    input.Description,
		ApprovalStatus: ApprovalStatusPending,
		CreatedBy:      createdBy,
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&version).Error; err != nil {
			return err
		}
		return CreateEvent(tx, EventActionCreate, version.ID, "Version", nil, &version,
			fmt.Sprintf("version %q created", version.Name))
	})
	if err != nil {
		return nil, err
	}

	return &version, nil
}

func GetVersion(ctx context.Context, id int) (*Version, error) {
	version, err := utils.FetchSingleModel[Version](ctx, id)
	if err != nil {
		return nil, err
	}
	return version, nil
}

func GetVersionWithStats(ctx context.Context, id int) (*VersionWithStats, error) {
	version, err := GetVersion(ctx, id)
	if err != nil {
		return nil, err
	}
	stats, err := GetVersionStats(ctx, id)
	if err != nil {
		return nil, err
	}
	return &VersionWithStats{Version: *version, Stats: *stats}, nil
}

func GetVersionStats(ctx context.Context, id int) (*VersionStats, error) {
	db := config.GetDB().WithContext(ctx)
	var stats VersionStats

	counts := []struct {
		model interface{}
		dest  *int64
	}{
		{&StagingBrand{}, &stats.BrandCount},
		{&StagingVehicleLine{}, &stats.VehicleLineCount},
		{&StagingModel{}, &stats.ModelCount},
		{&StagingTrim{}, &stats.TrimCount},
		{&StagingOption{}, &stats.OptionCount},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Where("version_id = ?", id).Count(c.dest).Error; err != nil {
			return nil, err
		}
	}
	return &stats, nil
}

// ListVersions returns every version with staging counts, optionally
// narrowed to one approval status.
func ListVersions(ctx context.Context, status *ApprovalStatus) ([]*VersionWithStats, error) {
	db := config.GetDB().WithContext(ctx).Model(&Version{})
	if status != nil {
		db = db.Where("approval_status = ?", *status)
	}
	var versions []*Version
	if err := db.Order("id DESC").Find(&versions).Error; err != nil {
		return nil, err
	}
	results := make([]*VersionWithStats, 0, len(versions))
	for _, v := range versions {
		stats, err := GetVersionStats(ctx, v.ID)
		if err != nil {
			return nil, err
		}
		results = append(results, &VersionWithStats{Version: *v, Stats: *stats})
	}
	return results, nil
}

// ApproveVersion moves PENDING -> APPROVED. Calling it again on an already
// APPROVED version is a no-op returning the current row; on MIGRATED it fails.
// The version lock serializes the call against in-flight ingestion commits.
func ApproveVersion(ctx context.Context, id int) (*Version, error) {
	release, err := utils.VersionLock(ctx, id, "version.go", "ApproveVersion")
	if err != nil {
		return nil, err
	}
	defer release()

	version, err := utils.FetchSingleModel[Version](ctx, id)
	if err != nil {
		return nil, err
	}

	switch version.ApprovalStatus {
	case ApprovalStatusApproved:
		return version, nil
	case ApprovalStatusMigrated:
		return nil, fmt.Errorf("cannot approve version %d: %w", id, utils.ErrorVersionMigrated)
	}

	approvedBy, _ := utils.GetUserNameFromContext(ctx)
	now := time.Now()
	before := *version

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(version).Updates(map[string]interface{}{
			"approval_status": ApprovalStatusApproved,
			"approved_by":     approvedBy,
			"approved_at":     now,
			"rejection_note":  "",
		}).Error; err != nil {
			return err
		}
		return CreateEvent(tx, EventActionApprove, version.ID, "Version", &before, version,
			fmt.Sprintf("version %q approved", version.Name))
	})
	if err != nil {
		return nil, err
	}
	return version, nil
}

// RejectVersion returns an APPROVED version to PENDING with a note; on a
// version already PENDING it only records the note.
func RejectVersion(ctx context.Context, id int, note string) (*Version, error) {
	release, err := utils.VersionLock(ctx, id, "version.go", "RejectVersion")
	if err != nil {
		return nil, err
	}
	defer release()

	version, err := utils.FetchSingleModel[Version](ctx, id)
	if err != nil {
		return nil, err
	}

	if version.ApprovalStatus == ApprovalStatusMigrated {
		return nil, fmt.Errorf("cannot reject version %d: %w", id, utils.ErrorVersionMigrated)
	}

	before := *version

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(version).Updates(map[string]interface{}{
			"approval_status": ApprovalStatusPending,
			"approved_by":     "",
			"approved_at":     nil,
			"rejection_note":  note,
		}).Error; err != nil {
			return err
		}
		return CreateEvent(tx, EventActionReject, version.ID, "Version", &before, version,
			fmt.Sprintf("version %q rejected", version.Name))
	})
	if err != nil {
		return nil, err
	}
	return version, nil
}

// MarkVersionMigrated flips APPROVED -> MIGRATED inside the caller's
// promotion transaction; any other current status is rejected.
func MarkVersionMigrated(ctx context.Context, tx *gorm.DB, id int) error {
	var version Version
	if err := tx.WithContext(ctx).First(&version, id).Error; err != nil {
		return utils.ErrorRecordNotFound
	}
	if version.ApprovalStatus != ApprovalStatusApproved {
		return fmt.Errorf("cannot migrate version %d in status %s: %w", id, version.ApprovalStatus, utils.ErrorVersionNotApproved)
	}
	now := time.Now()
	return tx.WithContext(ctx).Model(&version).Updates(map[string]interface{}{
		"approval_status": ApprovalStatusMigrated,
		"migrated_at":     now,
	}).Error
}

// DeleteVersion removes a PENDING version and its whole staging subtree in
// one transaction. APPROVED and MIGRATED versions cannot be deleted.
func DeleteVersion(ctx context.Context, id int) (*Version, error) {
	release, err := utils.VersionLock(ctx, id, "version.go", "DeleteVersion")
	if err != nil {
		return nil, err
	}
	defer release()

	version, err := utils.FetchSingleModel[Version](ctx, id)
	if err != nil {
		return nil, err
	}
	if version.ApprovalStatus != ApprovalStatusPending {
		return nil, errors.New("only pending versions can be deleted")
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := DeleteStagingTreeForVersion(ctx, tx, id); err != nil {
			return err
		}
		if err := tx.Delete(&Version{}, id).Error; err != nil {
			return err
		}
		return CreateEvent(tx, EventActionDelete, id, "Version", version, nil,
			fmt.Sprintf("version %q deleted", version.Name))
	})
	if err != nil {
		return nil, err
	}
	return version, nil
}

// EnsureVersionIngestable verifies that a version still accepts workbook
// uploads and staging edits.
func EnsureVersionIngestable(ctx context.Context, tx *gorm.DB, id int) error {
	var version Version
	if err := tx.WithContext(ctx).First(&version, id).Error; err != nil {
		return utils.ErrorRecordNotFound
	}
	if version.ApprovalStatus != ApprovalStatusPending {
		return fmt.Errorf("version %d is %s: %w", id, version.ApprovalStatus, utils.ErrorVersionNotIngestable)
	}
	return nil
}
