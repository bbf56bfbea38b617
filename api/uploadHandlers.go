package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"bitbucket.org/mmdatafocus/catalog_backend/config"
	"bitbucket.org/mmdatafocus/catalog_backend/models"
	"bitbucket.org/mmdatafocus/catalog_backend/utils"
	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
)

var logoExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// UploadBrandLogoHandler stores a staged brand's logo plus a 200px-wide
// thumbnail and records both URLs on the staging row.
func UploadBrandLogoHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		versionId, ok := intParam(c, "id")
		if !ok {
			return
		}
		brandId, ok := intParam(c, "brandId")
		if !ok {
			return
		}

		brand, err := models.GetStagingBrand(c.Request.Context(), versionId, brandId)
		if err != nil {
			respondError(c, err)
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}
		if fileHeader.Size > config.MaxLogoBytes() {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "logo exceeds upload limit"})
			return
		}
		ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
		if !logoExtensions[ext] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "only jpeg and png logos are accepted"})
			return
		}

		src, err := fileHeader.Open()
		if err != nil {
			respondError(c, err)
			return
		}
		defer src.Close()
		data, err := io.ReadAll(src)
		if err != nil {
			respondError(c, err)
			return
		}

		objectKey := fmt.Sprintf("brands/%d/logos/%s%s", brandId, utils.GenerateUniqueFilename(), ext)
		if err := utils.UploadFileToGCS(c.Request.Context(), objectKey, bytes.NewReader(data)); err != nil {
			respondError(c, err)
			return
		}

		thumbnailKey, err := createLogoThumbnail(c.Request.Context(), objectKey, data)
		if err != nil {
			config.LogError(config.GetLogger(), "api", "UploadBrandLogoHandler", "Thumbnail generation failed", objectKey, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate thumbnail"})
			return
		}

		updated, err := models.UpdateStagingBrand(c.Request.Context(), versionId, brandId, &models.NewStagingBrand{
			Name:    brand.Name,
			Country: brand.Country,
			Manager: brand.Manager,
			LogoUrl: utils.BuildObjectAccessURL(objectKey),
		})
		if err != nil {
			respondError(c, err)
			return
		}

		// Best-effort cleanup of the replaced logo; the new row already
		// points at the fresh objects.
		if oldKey := utils.ExtractObjectKeyFromURL(brand.LogoUrl); oldKey != "" && oldKey != objectKey {
			for _, key := range []string{oldKey, logoThumbnailKey(oldKey)} {
				if err := utils.DeleteGCSObject(c.Request.Context(), key); err != nil {
					config.LogError(config.GetLogger(), "api", "UploadBrandLogoHandler", "Stale logo cleanup failed", key, err)
				}
			}
		}

		c.JSON(http.StatusOK, gin.H{"data": gin.H{
			"brand":         updated,
			"logo_url":      utils.BuildObjectAccessURL(objectKey),
			"thumbnail_url": utils.BuildObjectAccessURL(thumbnailKey),
		}})
	}
}

// logoThumbnailKey derives the thumbnail object key from a logo's key,
// e.g. "brands/3/logos/x.png" -> "brands/3/logos/thumbnails/x.jpg".
func logoThumbnailKey(objectKey string) string {
	key := path.Join(path.Dir(objectKey), "thumbnails", path.Base(objectKey))
	return strings.TrimSuffix(key, path.Ext(key)) + ".jpg"
}

func createLogoThumbnail(ctx context.Context, objectKey string, data []byte) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	thumbnail := imaging.Resize(img, 200, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumbnail, imaging.JPEG); err != nil {
		return "", err
	}

	thumbnailKey := logoThumbnailKey(objectKey)
	if err := utils.UploadFileToGCS(ctx, thumbnailKey, bytes.NewReader(buf.Bytes())); err != nil {
		return "", err
	}
	return thumbnailKey, nil
}
