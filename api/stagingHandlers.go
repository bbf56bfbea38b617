package api

import (
	"net/http"

	"bitbucket.org/mmdatafocus/catalog_backend/models"
	"github.com/gin-gonic/gin"
)

// Staging CRUD is always scoped to one version; every write revalidates
// that the version is still PENDING inside the model layer.

func CreateStagingBrandHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		versionId, ok := intParam(c, "id")
		if !ok {
			return
		}
		var input models.NewStagingBrand
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		brand, err := models.CreateStagingBrand(c.Request.Context(), versionId, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": brand})
	}
}

func ListStagingBrandsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		versionId, ok := intParam(c, "id")
		if !ok {
			return
		}
		brands, err := models.ListStagingBrands(c.Request.Context(), versionId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": brands})
	}
}

func GetStagingBrandHandler() gin.HandlerFunc {
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
		c.JSON(http.StatusOK, gin.H{"data": brand})
	}
}

func UpdateStagingBrandHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		versionId, ok := intParam(c, "id")
		if !ok {
			return
		}
		brandId, ok := intParam(c, "brandId")
		if !ok {
			return
		}
		var input models.NewStagingBrand
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		brand, err := models.UpdateStagingBrand(c.Request.Context(), versionId, brandId, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": brand})
	}
}

func DeleteStagingBrandHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		versionId, ok := intParam(c, "id")
		if !ok {
			return
		}
		brandId, ok := intParam(c, "brandId")
		if !ok {
			return
		}
		if err := models.DeleteStagingBrand(c.Request.Context(), versionId, brandId); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func CreateStagingVehicleLineHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		versionId, ok := intParam(c, "id")
		if !ok {
			return
		}
		var input models.NewStagingVehicleLine
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		line, err := models.CreateStagingVehicleLine(c.Request.Context(), versionId, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": line})
	}
}

func ListStagingVehicleLinesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		versionId, ok := intParam(c, "id")
		if !ok {
			return
		}
		lines, err := models.ListStagingVehicleLines(c.Request.Context(), versionId, intQuery(c, "brand_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": lines})
	}
}

func GetStagingVehicleLineHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		versionId, ok := intParam(c, "id")
		if !ok {
			return
		}
		lineId, ok := intParam(c, "lineId")
		if !ok {
			return
		}
		line, err := models.GetStagingVehicleLine(c.Request.Context(), versionId, lineId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": line})
	}
}

func UpdateStagingVehicleLineHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		versionId, ok := intParam(c, "id")
		if !ok {
			return
		}
		lineId, ok := intParam(c, "lineId")
		if !ok {
			return
		}
		var input models.NewStagingVehicleLine
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		line, err := models.UpdateStagingVehicleLine(c.Request.Context(), versionId, lineId, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": line})
	}
}

func DeleteStagingVehicleLineHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		versionId, ok := intParam(c, "id")
		if !ok {
			return
		}
		lineId, ok := intParam(c, "lineId")
		if !ok {
			return
		}
		if err := models.DeleteStagingVehicleLine(c.Request.Context(), versionId, lineId); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func CreateStagingModelHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		versionId, ok := intParam(c, "id")
		if !ok {
			return
		}
		var input models.NewStagingModel
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		model, err := models.CreateStagingModel(c.Request.Context(), versionId, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": model})
	}
}

func ListStagingModelsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		versionId, ok := intParam(c, "id")
		if !ok {
			return
		}
		results, err := models.ListStagingModels(c.Request.Context(), versionId, intQuery(c, "vehicle_line_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": results})
	}
}

func GetStagingModelHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		versionId, ok := intParam(c, "id")
		if !ok {
			return
		}
		modelId, ok := intParam(c, "modelId")
		if !ok {
			return
		}
		model, err := models.GetStagingModel(c.Request.Context(), versionId, modelId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": model})
	}
}

func UpdateStagingModelHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		versionId, ok := intParam(c, "id")
		if !ok {
			return
		}
		modelId, ok := intParam(c, "modelId")
		if !ok {
			return
		}
		var input models.NewStagingModel
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		model, err := models.UpdateStagingModel(c.Request.Context(), versionId, modelId, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": model})
	}
}

func DeleteStagingModelHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		versionId, ok := intParam(c, "id")
		if !ok {
			return
		}
		modelId, ok := intParam(c, "modelId")
		if !ok {
			return
		}
		if err := models.DeleteStagingModel(c.Request.Context(), versionId, modelId); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func CreateStagingTrimHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		versionId, ok := intParam(c, "id")
		if !ok {
			return
		}
		var input models.NewStagingTrim
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		trim, err := models.CreateStagingTrim(c.Request.Context(), versionId, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": trim})
	}
}

func ListStagingTrimsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		versionId, ok := intParam(c, "id")
		if !ok {
			return
		}
		trims, err := models.ListStagingTrims(c.Request.Context(), versionId, intQuery(c, "model_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": trims})
	}
}

func GetStagingTrimHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		versionId, ok := intParam(c, "id")
		if !ok {
			return
		}
		trimId, ok := intParam(c, "trimId")
		if !ok {
			return
		}
		trim, err := models.GetStagingTrim(c.Request.Context(), versionId, trimId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": trim})
	}
}

func UpdateStagingTrimHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		versionId, ok := intParam(c, "id")
		if !ok {
			return
		}
		trimId, ok := intParam(c, "trimId")
		if !ok {
			return
		}
		var input models.NewStagingTrim
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		trim, err := models.UpdateStagingTrim(c.Request.Context(), versionId, trimId, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": trim})
	}
}

func DeleteStagingTrimHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		versionId, ok := intParam(c, "id")
		if !ok {
			return
		}
		trimId, ok := intParam(c, "trimId")
		if !ok {
			return
		}
		if err := models.DeleteStagingTrim(c.Request.Context(), versionId, trimId); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func CreateStagingOptionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		versionId, ok := intParam(c, "id")
		if !ok {
			return
		}
		var input models.NewStagingOption
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		option, err := models.CreateStagingOption(c.Request.Context(), versionId, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": option})
	}
}

func ListStagingOptionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		versionId, ok := intParam(c, "id")
		if !ok {
			return
		}
		options, err := models.ListStagingOptions(c.Request.Context(), versionId, intQuery(c, "trim_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": options})
	}
}

func GetStagingOptionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		versionId, ok := intParam(c, "id")
		if !ok {
			return
		}
		optionId, ok := intParam(c, "optionId")
		if !ok {
			return
		}
		option, err := models.GetStagingOption(c.Request.Context(), versionId, optionId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": option})
	}
}

func UpdateStagingOptionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		versionId, ok := intParam(c, "id")
		if !ok {
			return
		}
		optionId, ok := intParam(c, "optionId")
		if !ok {
			return
		}
		var input models.NewStagingOption
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		option, err := models.UpdateStagingOption(c.Request.Context(), versionId, optionId, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": option})
	}
}

func DeleteStagingOptionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		versionId, ok := intParam(c, "id")
		if !ok {
			return
		}
		optionId, ok := intParam(c, "optionId")
		if !ok {
			return
		}
		if err := models.DeleteStagingOption(c.Request.Context(), versionId, optionId); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
