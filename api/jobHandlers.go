package api

import (
	"net/http"

	"bitbucket.org/mmdatafocus/catalog_backend/models"
	"github.com/gin-gonic/gin"
)

func GetJobHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := intParam(c, "id")
		if !ok {
			return
		}
		job, err := models.GetJob(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": job.ToResponse()})
	}
}

func ListJobsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// task ids are unique, so a task_id lookup short-circuits the filter
		if taskId := c.Query("task_id"); taskId != "" {
			job, err := models.GetJobByTaskId(c.Request.Context(), taskId)
			if err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"data": []*models.JobResponse{job.ToResponse()}})
			return
		}
		filter := models.JobFilter{
			Limit:  intQuery(c, "limit"),
			Offset: intQuery(c, "offset"),
		}
		if raw := c.Query("status"); raw != "" {
			status, err := models.ParseJobStatus(raw)
			if err != nil {
				respondError(c, err)
				return
			}
			filter.Status = &status
		}
		if raw := c.Query("job_type"); raw != "" {
			jobType, err := models.ParseJobType(raw)
			if err != nil {
				respondError(c, err)
				return
			}
			filter.JobType = &jobType
		}

		jobs, err := models.ListJobs(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err)
			return
		}
		responses := make([]*models.JobResponse, 0, len(jobs))
		for _, job := range jobs {
			responses = append(responses, job.ToResponse())
		}
		c.JSON(http.StatusOK, gin.H{"data": responses})
	}
}
