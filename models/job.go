package models

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/catalog_backend/config"
	"bitbucket.org/mmdatafocus/catalog_backend/utils"
	"gorm.io/gorm"
)

// Job is the persisted record of one asynchronous unit of work (excel
// import, promotion, crawl). Terminal states are write-once; every
// transition goes through the guarded update below.
type Job struct {
	ID            int       `gorm:"primary_key" json:"id"`
	JobType       JobType   `gorm:"size:30;not null" json:"job_type"`
	Status        JobStatus `gorm:"size:20;not null;default:PENDING" json:"status"`
	VersionId     int       `gorm:"index" json:"version_id"`
	TaskId        string    `gorm:"size:100;index" json:"task_id"`
	Progress      int       `gorm:"not null;default:0" json:"progress"`
	TotalRows     int       `gorm:"not null;default:0" json:"total_rows"`
	ProcessedRows int       `gorm:"not null;default:0" json:"processed_rows"`
	Attempts      int       `gorm:"not null;default:0" json:"attempts"`
	Result        []byte    `gorm:"type:json" json:"-"`
	ErrorMessage  string    `gorm:"size:2000" json:"error_message"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	StartedAt     *time.Time `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at"`
}

// runner retry policy: one initial attempt plus at most one retry
const maxJobAttempts = 2

func CreateJob(ctx context.Context, jobType JobType, versionId int, taskId string) (*Job, error) {
	if !jobType.Valid() {
		return nil, fmt.Errorf("invalid job type %q", jobType)
	}
	db := config.GetDB()
	job := Job{
		JobType:   jobType,
		Status:    JobStatusPending,
		VersionId: versionId,
		TaskId:    taskId,
	}
	if err := db.WithContext(ctx).Create(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// BindJobTask records the broker-assigned task identity once it is known.
func BindJobTask(ctx context.Context, jobId int, taskId string) error {
	db := config.GetDB()
	return db.WithContext(ctx).Model(&Job{}).
		Where("id = ?", jobId).
		Update("task_id", taskId).Error
}

// MarkJobProcessing transitions PENDING -> PROCESSING. A repeated call is
// the bounded retry re-entering PROCESSING; beyond maxJobAttempts it fails.
func MarkJobProcessing(ctx context.Context, jobId int) (*Job, error) {
	job, err := utils.FetchSingleModel[Job](ctx, jobId)
	if err != nil {
		return nil, err
	}
	if job.Status.Terminal() {
		return nil, utils.ErrorJobTerminal
	}
	if job.Attempts >= maxJobAttempts {
		return nil, fmt.Errorf("job %d exhausted retries", jobId)
	}

	updates := map[string]interface{}{
		"status":   JobStatusProcessing,
		"attempts": job.Attempts + 1,
	}
	if job.StartedAt == nil {
		now := time.Now()
		updates["started_at"] = now
	}

	db := config.GetDB()
	res := db.WithContext(ctx).Model(&Job{}).
		Where("id = ? AND status IN ?", jobId, []JobStatus{JobStatusPending, JobStatusProcessing}).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, utils.ErrorJobTerminal
	}
	return utils.FetchSingleModel[Job](ctx, jobId)
}

// SetJobProgress is only legal while PROCESSING. totalRows <= 0 leaves the
// stored total unchanged.
func SetJobProgress(ctx context.Context, jobId int, processedRows int, totalRows int) error {
	job, err := utils.FetchSingleModel[Job](ctx, jobId)
	if err != nil {
		return err
	}
	if job.Status != JobStatusProcessing {
		return utils.ErrorJobNotProcessing
	}

	total := job.TotalRows
	if totalRows > 0 {
		total = totalRows
	}
	progress := 0
	if total > 0 {
		progress = processedRows * 100 / total
		if progress > 100 {
			progress = 100
		}
	}

	db := config.GetDB()
	res := db.WithContext(ctx).Model(&Job{}).
		Where("id = ? AND status = ?", jobId, JobStatusProcessing).
		Updates(map[string]interface{}{
			"processed_rows": processedRows,
			"total_rows":     total,
			"progress":       progress,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrorJobNotProcessing
	}
	return nil
}

// CompleteJob writes the terminal COMPLETED state with the result document.
func CompleteJob(ctx context.Context, jobId int, result interface{}) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return finalizeJob(ctx, jobId, JobStatusCompleted, resultJSON, "")
}

// FailJob writes the terminal FAILED state with an error message.
func FailJob(ctx context.Context, jobId int, errorMessage string) error {
	return finalizeJob(ctx, jobId, JobStatusFailed, nil, errorMessage)
}

func finalizeJob(ctx context.Context, jobId int, status JobStatus, resultJSON []byte, errorMessage string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":        status,
		"completed_at":  now,
		"error_message": errorMessage,
	}
	if resultJSON != nil {
		updates["result"] = resultJSON
		updates["progress"] = 100
	}

	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Job{}).
			Where("id = ? AND status IN ?", jobId, []JobStatus{JobStatusPending, JobStatusProcessing}).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// terminal states are write-once
			return utils.ErrorJobTerminal
		}
		return CreateEvent(tx, EventActionUpdate, jobId, "Job", nil, updates,
			fmt.Sprintf("job %d finished as %s", jobId, status))
	})
}

func GetJob(ctx context.Context, jobId int) (*Job, error) {
	return utils.FetchSingleModel[Job](ctx, jobId)
}

func GetJobByTaskId(ctx context.Context, taskId string) (*Job, error) {
	db := config.GetDB()
	var job Job
	if err := db.WithContext(ctx).Where("task_id = ?", taskId).First(&job).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &job, nil
}

type JobFilter struct {
	Status  *JobStatus
	JobType *JobType
	Limit   int
	Offset  int
}

func ListJobs(ctx context.Context, filter JobFilter) ([]*Job, error) {
	db := config.GetDB().WithContext(ctx).Model(&Job{})
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if filter.JobType != nil {
		db = db.Where("job_type = ?", *filter.JobType)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = config.SearchLimit
	} else if limit > 100 {
		limit = 100
	}
	var jobs []*Job
	err := db.Order("id DESC").Limit(limit).Offset(filter.Offset).Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// JobResponse is the job status object served to operators.
type JobResponse struct {
	ID            int             `json:"id"`
	Status        JobStatus       `json:"status"`
	JobType       JobType         `json:"job_type"`
	Progress      int             `json:"progress"`
	TotalRows     int             `json:"total_rows"`
	ProcessedRows int             `json:"processed_rows"`
	Result        json.RawMessage `json:"result"`
	ErrorMessage  *string         `json:"error_message"`
	CreatedAt     time.Time       `json:"created_at"`
	StartedAt     *time.Time      `json:"started_at"`
	CompletedAt   *time.Time      `json:"completed_at"`
}

func (job *Job) ToResponse() *JobResponse {
	resp := &JobResponse{
		ID:            job.ID,
		Status:        job.Status,
		JobType:       job.JobType,
		Progress:      job.Progress,
		TotalRows:     job.TotalRows,
		ProcessedRows: job.ProcessedRows,
		CreatedAt:     job.CreatedAt,
		StartedAt:     job.StartedAt,
		CompletedAt:   job.CompletedAt,
	}
	if len(job.Result) > 0 {
		resp.Result = json.RawMessage(job.Result)
	}
	if job.ErrorMessage != "" {
		msg := job.ErrorMessage
		resp.ErrorMessage = &msg
	}
	return resp
}
