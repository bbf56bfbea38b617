// staging-gc sweeps staging rows left behind by promoted versions. Versions
// stay visible forever; only their staging trees are reclaimed once the
// retention window has passed.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... PROMOTION_RETENTION_DAYS=30 go run ./cmd/staging-gc [-dry-run]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"bitbucket.org/mmdatafocus/catalog_backend/config"
	"bitbucket.org/mmdatafocus/catalog_backend/models"
	"bitbucket.org/mmdatafocus/catalog_backend/utils"
	"gorm.io/gorm"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "list reclaimable versions without deleting anything")
	flag.Parse()

	ctx := context.Background()
	ctx = utils.SetUserNameInContext(ctx, "StagingGC")
	ctx = utils.SetIsAdminInContext(ctx, true)

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	retention := config.PromotionRetentionDays()
	cutoff := time.Now().AddDate(0, 0, -retention)

	var versions []models.Version
	err := db.WithContext(ctx).
		Where("approval_status = ? AND migrated_at IS NOT NULL AND migrated_at < ?", models.ApprovalStatusMigrated, cutoff).
		Order("migrated_at asc").
		Find(&versions).Error
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to list migrated versions: %v\n", err)
		os.Exit(1)
	}
	if len(versions) == 0 {
		fmt.Printf("no migrated versions older than %d days; nothing to reclaim\n", retention)
		return
	}

	reclaimed := 0
	for _, version := range versions {
		var staged int64
		if err := db.WithContext(ctx).Model(&models.StagingBrand{}).Where("version_id = ?", version.ID).Count(&staged).Error; err != nil {
			fmt.Fprintf(os.Stderr, "version %d: failed to count staging rows: %v\n", version.ID, err)
			os.Exit(1)
		}
		if staged == 0 {
			continue
		}
		if *dryRun {
			fmt.Printf("[dry-run] version %d (%s, migrated %s) has staging rows to reclaim\n",
				version.ID, version.Name, version.MigratedAt.Format(time.RFC3339))
			reclaimed++
			continue
		}
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return models.DeleteStagingTreeForVersion(ctx, tx, version.ID)
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "version %d: failed to reclaim staging tree: %v\n", version.ID, err)
			os.Exit(1)
		}
		fmt.Printf("reclaimed staging tree for version %d (%s)\n", version.ID, version.Name)
		reclaimed++
	}
	fmt.Printf("done: %d of %d migrated versions had staging rows\n", reclaimed, len(versions))
}
