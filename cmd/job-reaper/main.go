// job-reaper fails jobs stranded in PROCESSING. A worker crash between
// MarkJobProcessing and the terminal transition leaves the job row open
// forever; this sweep closes any job whose last update predates the hard
// task timeout. Run it from cron or invoke it manually after an incident.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... TASK_HARD_TIMEOUT_MINUTES=30 go run ./cmd/job-reaper [-dry-run]
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
)

func main() {
	dryRun := flag.Bool("dry-run", false, "list stranded jobs without failing them")
	flag.Parse()

	ctx := context.Background()
	ctx = utils.SetUserNameInContext(ctx, "JobReaper")
	ctx = utils.SetIsAdminInContext(ctx, true)

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	cutoff := time.Now().Add(-config.TaskHardTimeout())

	var stranded []models.Job
	err := db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", models.JobStatusProcessing, cutoff).
		Order("updated_at asc").
		Find(&stranded).Error
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to list stranded jobs: %v\n", err)
		os.Exit(1)
	}
	if len(stranded) == 0 {
		fmt.Println("no stranded jobs; nothing to do")
		return
	}

	for _, job := range stranded {
		if *dryRun {
			fmt.Printf("[dry-run] job %d (%s, version %d) last updated %s\n",
				job.ID, job.JobType, job.VersionId, job.UpdatedAt.Format(time.RFC3339))
			continue
		}
		msg := fmt.Sprintf("TaskTimeout: no progress since %s", job.UpdatedAt.Format(time.RFC3339))
		if err := models.FailJob(ctx, job.ID, msg); err != nil {
			fmt.Fprintf(os.Stderr, "job %d: failed to close: %v\n", job.ID, err)
			os.Exit(1)
		}
		fmt.Printf("failed stranded job %d (%s, version %d)\n", job.ID, job.JobType, job.VersionId)
	}
	fmt.Printf("done: swept %d stranded jobs\n", len(stranded))
}
