package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/catalog_backend/config"
	"bitbucket.org/mmdatafocus/catalog_backend/models"
	"bitbucket.org/mmdatafocus/catalog_backend/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const moduleName = "importer"

var tracer trace.Tracer = otel.Tracer("catalog-backend/importer")

// sheetStats counts only newly created rows; reused rows don't count, which
// is what makes a repeat upload report all-zero counters.
type sheetStats struct {
	brands       int
	vehicleLines int
	models       int
	trims        int
	options      int
}

// RunImport drives one complete ingestion cycle for one job and one target
// version. The workbook travels through object storage; only its key rides
// in the task payload.
func RunImport(ctx context.Context, payload *ImportTaskPayload) error {
	logger := config.GetLogger()

	content, err := utils.ReadFileFromGCS(ctx, payload.ObjectKey)
	if err != nil {
		config.LogError(logger, moduleName, "RunImport", "Failed to read workbook from storage", payload.ObjectKey, err)
		if _, err := models.MarkJobProcessing(ctx, payload.JobId); err != nil {
			if errors.Is(err, utils.ErrorJobTerminal) {
				return nil
			}
			return err
		}
		return failImport(ctx, payload.JobId, "IngestParseFailure: workbook could not be fetched")
	}
	return ImportWorkbook(ctx, payload.JobId, payload.VersionId, payload.Country, content)
}

// ImportWorkbook runs the full ingestion cycle on in-memory workbook bytes.
// Soft errors (orphan rows, unknown trims) end up in the job result; only an
// unreadable workbook, a non-ingestable version or a deadline flips the job
// to FAILED.
func ImportWorkbook(ctx context.Context, jobId int, versionId int, country string, content []byte) error {
	logger := config.GetLogger()
	ctx, span := tracer.Start(ctx, "ImportWorkbook")
	defer span.End()

	job, err := models.MarkJobProcessing(ctx, jobId)
	if err != nil {
		if errors.Is(err, utils.ErrorJobTerminal) {
			// redelivery of a finished job
			return nil
		}
		return err
	}

	version, err := models.GetVersion(ctx, versionId)
	if err != nil {
		return failImport(ctx, job.ID, fmt.Sprintf("VersionNotIngestable: version %d not found", versionId))
	}
	if version.ApprovalStatus != models.ApprovalStatusPending {
		return failImport(ctx, job.ID, fmt.Sprintf("VersionNotIngestable: version %d is %s", version.ID, version.ApprovalStatus))
	}

	sheets, err := ParseWorkbook(content)
	if err != nil {
		return failImport(ctx, job.ID, err.Error())
	}

	totalRows := 0
	for _, sheet := range sheets {
		totalRows += len(sheet.Records)
	}
	if err := models.SetJobProgress(ctx, job.ID, 0, totalRows); err != nil {
		return err
	}

	db := config.GetDB()
	prefixes := config.BrandPrefixes()
	start := time.Now()
	result := ImportResult{Errors: []string{}}
	processedRows := 0

	for _, sheet := range sheets {
		if len(sheet.Records) == 0 {
			// empty sheet, brand skipped
			continue
		}
		if time.Since(start) > config.TaskSoftTimeout() {
			return failImport(ctx, job.ID, "Timeout: soft deadline exceeded before next brand sheet")
		}

		entities := Extract(sheet.Records, prefixes)

		var stats sheetStats
		release, err := utils.VersionLock(ctx, versionId, moduleName, "RunImport")
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("brand %q: %v", sheet.Name, err))
			continue
		}
		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := models.EnsureVersionIngestable(ctx, tx, versionId); err != nil {
				return err
			}
			var err error
			stats, err = ingestBrandSheet(ctx, tx, versionId, sheet.Name, country, entities)
			return err
		})
		release()

		if err != nil {
			if errors.Is(err, utils.ErrorVersionNotIngestable) {
				return failImport(ctx, job.ID, fmt.Sprintf("VersionNotIngestable: version %d left PENDING during import", versionId))
			}
			// brand rolled back, move on to the next sheet
			config.LogError(logger, moduleName, "RunImport", "Brand sheet rolled back", sheet.Name, err)
			result.Errors = append(result.Errors, fmt.Sprintf("brand %q: %v", sheet.Name, err))
			continue
		}

		result.BrandCount += stats.brands
		result.VehicleLineCount += stats.vehicleLines
		result.ModelCount += stats.models
		result.TrimCount += stats.trims
		result.OptionCount += stats.options
		result.Errors = append(result.Errors, entities.Warnings...)

		processedRows += len(sheet.Records)
		if err := models.SetJobProgress(ctx, job.ID, processedRows, totalRows); err != nil {
			return err
		}
	}

	result.TotalRows = totalRows
	result.ProcessedRows = processedRows
	result.Success = len(result.Errors) == 0

	config.LogInfo(logger, moduleName, "RunImport", "Import finished", map[string]interface{}{
		"job_id":     job.ID,
		"version_id": versionId,
		"success":    result.Success,
		"errors":     len(result.Errors),
	})
	return models.CompleteJob(ctx, job.ID, &result)
}

func failImport(ctx context.Context, jobId int, message string) error {
	if err := models.FailJob(ctx, jobId, message); err != nil && !errors.Is(err, utils.ErrorJobTerminal) {
		return err
	}
	return nil
}

// ingestBrandSheet writes one brand's hierarchy inside the caller's
// transaction: brand, then lines, models, trims and options in parent-first
// order. Unique collisions reuse the existing row; anything else aborts the
// sheet.
func ingestBrandSheet(ctx context.Context, tx *gorm.DB, versionId int, brandName string, country string, entities *BrandEntities) (sheetStats, error) {
	var stats sheetStats

	brand, created, err := models.FindOrCreateStagingBrand(ctx, tx, versionId, &models.NewStagingBrand{
		Name:    brandName,
		Country: country,
	})
	if err != nil {
		return stats, err
	}
	if created {
		stats.brands++
	}

	for _, line := range entities.VehicleLines {
		stagedLine, created, err := models.FindOrCreateStagingVehicleLine(ctx, tx, versionId, &models.NewStagingVehicleLine{
			BrandId: brand.ID,
			Name:    line.Name,
		})
		if err != nil {
			return stats, err
		}
		if created {
			stats.vehicleLines++
		}

		for _, model := range line.Models {
			stagedModel, created, err := models.FindOrCreateStagingModel(ctx, tx, versionId, &models.NewStagingModel{
				VehicleLineId: stagedLine.ID,
				Name:          model.Name,
				Code:          ModelCode(brandName, line.Name, model.Name),
				ReleaseYear:   model.Year,
			})
			if err != nil {
				return stats, err
			}
			if created {
				stats.models++
			}

			for _, trim := range model.Trims {
				stagedTrim, created, err := models.FindOrCreateStagingTrim(ctx, tx, versionId, &models.NewStagingTrim{
					ModelId:   stagedModel.ID,
					Name:      trim.Name,
					BasePrice: trim.BasePrice,
				})
				if err != nil {
					return stats, err
				}
				if created {
					stats.trims++
				}

				for i, option := range trim.Options {
					_, created, err := models.FindOrCreateStagingOption(ctx, tx, versionId, &models.NewStagingOption{
						TrimId:    stagedTrim.ID,
						Name:      option.Name,
						Category:  option.Group,
						Price:     option.Price,
						SortOrder: i,
					})
					if err != nil {
						return stats, err
					}
					if created {
						stats.options++
					}
				}
			}
		}
	}

	return stats, nil
}
