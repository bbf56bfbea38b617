package api

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"bitbucket.org/mmdatafocus/catalog_backend/config"
	"bitbucket.org/mmdatafocus/catalog_backend/importer"
	"bitbucket.org/mmdatafocus/catalog_backend/models"
	"bitbucket.org/mmdatafocus/catalog_backend/utils"
	"github.com/gin-gonic/gin"
)

func CreateVersionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewVersion
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		version, err := models.CreateVersion(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": version})
	}
}

func ListVersionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var status *models.ApprovalStatus
		if raw := c.Query("status"); raw != "" {
			parsed, err := models.ParseApprovalStatus(raw)
			if err != nil {
				respondError(c, err)
				return
			}
			status = &parsed
		}
		versions, err := models.ListVersions(c.Request.Context(), status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": versions})
	}
}

func GetVersionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := intParam(c, "id")
		if !ok {
			return
		}
		version, err := models.GetVersionWithStats(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": version})
	}
}

func ApproveVersionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := intParam(c, "id")
		if !ok {
			return
		}
		version, err := models.ApproveVersion(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": version})
	}
}

type rejectVersionRequest struct {
	Note string `json:"note"`
}

func RejectVersionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := intParam(c, "id")
		if !ok {
			return
		}
		var req rejectVersionRequest
		if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
			respondError(c, err)
			return
		}
		version, err := models.RejectVersion(c.Request.Context(), id, req.Note)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": version})
	}
}

func DeleteVersionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := intParam(c, "id")
		if !ok {
			return
		}
		version, err := models.DeleteVersion(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": version})
	}
}

var workbookExtensions = map[string]bool{
	".xlsx": true,
	".xls":  true,
}

// UploadWorkbookHandler stages a price workbook: the file goes to object
// storage, a job row is created and the ingestion task is published. The
// actual parsing happens on the worker, never in the request path.
func UploadWorkbookHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		versionId, ok := intParam(c, "id")
		if !ok {
			return
		}

		version, err := models.GetVersion(c.Request.Context(), versionId)
		if err != nil {
			respondError(c, err)
			return
		}
		if version.ApprovalStatus != models.ApprovalStatusPending {
			respondError(c, fmt.Errorf("version %d: %w", versionId, utils.ErrorVersionNotIngestable))
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}
		if fileHeader.Size > config.MaxUploadBytes() {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "workbook exceeds upload limit"})
			return
		}
		ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
		if !workbookExtensions[ext] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "only .xlsx and .xls workbooks are accepted"})
			return
		}

		src, err := fileHeader.Open()
		if err != nil {
			respondError(c, err)
			return
		}
		defer src.Close()

		objectKey := fmt.Sprintf("versions/%d/workbooks/%s%s", versionId, utils.GenerateUniqueFilename(), ext)
		if err := utils.UploadFileToGCS(c.Request.Context(), objectKey, src); err != nil {
			respondError(c, err)
			return
		}

		job, err := models.CreateJob(c.Request.Context(), models.JobTypeExcelImport, versionId, "")
		if err != nil {
			respondError(c, err)
			return
		}
		if err := importer.PublishImportTask(c.Request.Context(), &importer.ImportTaskPayload{
			JobId:     job.ID,
			VersionId: versionId,
			ObjectKey: objectKey,
			Country:   c.PostForm("country"),
		}); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusAccepted, gin.H{"data": job.ToResponse()})
	}
}

// PromoteVersionHandler enqueues the promotion of an APPROVED version. The
// merge itself runs on the worker under the version lock.
func PromoteVersionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		versionId, ok := intParam(c, "id")
		if !ok {
			return
		}

		version, err := models.GetVersion(c.Request.Context(), versionId)
		if err != nil {
			respondError(c, err)
			return
		}
		if version.ApprovalStatus != models.ApprovalStatusApproved {
			respondError(c, fmt.Errorf("version %d is %s: %w", versionId, version.ApprovalStatus, utils.ErrorVersionNotApproved))
			return
		}

		job, err := models.CreateJob(c.Request.Context(), models.JobTypePromotion, versionId, "")
		if err != nil {
			respondError(c, err)
			return
		}
		if err := importer.PublishPromotionTask(c.Request.Context(), &importer.PromotionTaskPayload{
			JobId:     job.ID,
			VersionId: versionId,
		}); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusAccepted, gin.H{"data": job.ToResponse()})
	}
}
