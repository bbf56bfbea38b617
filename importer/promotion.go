package importer

import (
	"context"
	"errors"
	"fmt"

	"bitbucket.org/mmdatafocus/catalog_backend/config"
	"bitbucket.org/mmdatafocus/catalog_backend/models"
	"bitbucket.org/mmdatafocus/catalog_backend/utils"
	"gorm.io/gorm"
)

// RunPromotion merges an APPROVED version's staging tree into the main
// catalog in one transaction and marks the version MIGRATED. Any failure
// aborts the whole transaction and leaves the version APPROVED; the run can
// then simply be repeated.
func RunPromotion(ctx context.Context, payload *PromotionTaskPayload) error {
	logger := config.GetLogger()
	ctx, span := tracer.Start(ctx, "RunPromotion")
	defer span.End()

	job, err := models.MarkJobProcessing(ctx, payload.JobId)
	if err != nil {
		if errors.Is(err, utils.ErrorJobTerminal) {
			return nil
		}
		return err
	}

	version, err := models.GetVersion(ctx, payload.VersionId)
	if err != nil {
		return failPromotion(ctx, job.ID, fmt.Sprintf("version %d not found", payload.VersionId))
	}
	if version.ApprovalStatus != models.ApprovalStatusApproved {
		return failPromotion(ctx, job.ID, fmt.Sprintf("version %d is %s, promotion requires APPROVED", version.ID, version.ApprovalStatus))
	}

	release, err := utils.VersionLock(ctx, payload.VersionId, moduleName, "RunPromotion")
	if err != nil {
		return failPromotion(ctx, job.ID, err.Error())
	}
	defer release()

	db := config.GetDB()
	result := PromotionResult{Errors: []string{}}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stats, err := promoteVersionTree(ctx, tx, payload.VersionId)
		if err != nil {
			return err
		}
		result.BrandCount = stats.brands
		result.VehicleLineCount = stats.vehicleLines
		result.ModelCount = stats.models
		result.TrimCount = stats.trims
		result.OptionCount = stats.options

		if err := models.MarkVersionMigrated(ctx, tx, payload.VersionId); err != nil {
			return err
		}
		return models.CreateEvent(tx.WithContext(ctx), models.EventActionMigrate,
			payload.VersionId, "Version", nil, nil,
			fmt.Sprintf("Version %q promoted to main catalog.", version.Name))
	})
	if err != nil {
		config.LogError(logger, moduleName, "RunPromotion", "Promotion aborted, version stays APPROVED", payload.VersionId, err)
		return failPromotion(ctx, job.ID, err.Error())
	}

	result.Success = true
	config.LogInfo(logger, moduleName, "RunPromotion", "Promotion finished", map[string]interface{}{
		"job_id":     job.ID,
		"version_id": payload.VersionId,
	})
	return models.CompleteJob(ctx, job.ID, &result)
}

func failPromotion(ctx context.Context, jobId int, message string) error {
	if err := models.FailJob(ctx, jobId, message); err != nil && !errors.Is(err, utils.ErrorJobTerminal) {
		return err
	}
	return nil
}

// promoteVersionTree upserts parent-first so every child's main-catalog
// parent exists before the child is written. Counts cover every staged row
// touched, created or updated alike.
func promoteVersionTree(ctx context.Context, tx *gorm.DB, versionId int) (sheetStats, error) {
	var stats sheetStats

	var stagedBrands []*models.StagingBrand
	if err := tx.WithContext(ctx).
		Where("version_id = ?", versionId).
		Order("id ASC").
		Find(&stagedBrands).Error; err != nil {
		return stats, err
	}

	for _, stagedBrand := range stagedBrands {
		brand, err := models.UpsertBrand(ctx, tx, stagedBrand)
		if err != nil {
			return stats, err
		}
		stats.brands++

		var stagedLines []*models.StagingVehicleLine
		if err := tx.WithContext(ctx).
			Where("version_id = ? AND brand_id = ?", versionId, stagedBrand.ID).
			Order("id ASC").
			Find(&stagedLines).Error; err != nil {
			return stats, err
		}

		for _, stagedLine := range stagedLines {
			line, err := models.UpsertVehicleLine(ctx, tx, brand.ID, stagedLine)
			if err != nil {
				return stats, err
			}
			stats.vehicleLines++

			var stagedModels []*models.StagingModel
			if err := tx.WithContext(ctx).
				Where("version_id = ? AND vehicle_line_id = ?", versionId, stagedLine.ID).
				Order("id ASC").
				Find(&stagedModels).Error; err != nil {
				return stats, err
			}

			for _, stagedModel := range stagedModels {
				model, err := models.UpsertModel(ctx, tx, line.ID, stagedModel)
				if err != nil {
					return stats, err
				}
				stats.models++

				var stagedTrims []*models.StagingTrim
				if err := tx.WithContext(ctx).
					Where("version_id = ? AND model_id = ?", versionId, stagedModel.ID).
					Order("id ASC").
					Find(&stagedTrims).Error; err != nil {
					return stats, err
				}

				for _, stagedTrim := range stagedTrims {
					trim, err := models.UpsertTrim(ctx, tx, model.ID, stagedTrim)
					if err != nil {
						return stats, err
					}
					stats.trims++

					var stagedOptions []*models.StagingOption
					if err := tx.WithContext(ctx).
						Where("version_id = ? AND trim_id = ?", versionId, stagedTrim.ID).
						Order("sort_order ASC, id ASC").
						Find(&stagedOptions).Error; err != nil {
						return stats, err
					}

					for _, stagedOption := range stagedOptions {
						if _, err := models.UpsertOption(ctx, tx, trim.ID, stagedOption); err != nil {
							return stats, err
						}
						stats.options++
					}
				}
			}
		}
	}

	return stats, nil
}
