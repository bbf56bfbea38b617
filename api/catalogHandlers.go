package api

import (
	"net/http"
	"time"

	"bitbucket.org/mmdatafocus/catalog_backend/models"
	"github.com/gin-gonic/gin"
)

// Read-only views over the main catalog. Writes only ever arrive through
// promotion.

func ListBrandsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		brands, err := models.ListBrands(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": brands})
	}
}

func ListCatalogVehicleLinesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		brandId, ok := intParam(c, "brandId")
		if !ok {
			return
		}
		lines, err := models.ListVehicleLines(c.Request.Context(), brandId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": lines})
	}
}

func ListCatalogModelsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		lineId, ok := intParam(c, "lineId")
		if !ok {
			return
		}
		results, err := models.ListModels(c.Request.Context(), lineId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": results})
	}
}

func ListCatalogTrimsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		modelId, ok := intParam(c, "modelId")
		if !ok {
			return
		}
		trims, err := models.ListTrims(c.Request.Context(), modelId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": trims})
	}
}

type optionWithPricing struct {
	models.Option
	EffectivePrice int64 `json:"effective_price"`
}

// ListCatalogOptionsHandler returns a trim's options with the currently
// active discount policies already applied.
func ListCatalogOptionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		trimId, ok := intParam(c, "trimId")
		if !ok {
			return
		}
		options, err := models.ListOptions(c.Request.Context(), trimId)
		if err != nil {
			respondError(c, err)
			return
		}
		policies, err := models.GetDiscountPolicies(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}

		now := time.Now()
		results := make([]*optionWithPricing, 0, len(options))
		for _, option := range options {
			price := option.Price
			if option.DiscountedPrice > 0 && option.DiscountedPrice < price {
				price = option.DiscountedPrice
			}
			for _, policy := range policies {
				if !policy.ActiveAt(now) {
					continue
				}
				if policy.TrimId != 0 && policy.TrimId != trimId {
					continue
				}
				if policy.Category != "" && policy.Category != option.Category {
					continue
				}
				if discounted := policy.Apply(price); discounted < price {
					price = discounted
				}
			}
			results = append(results, &optionWithPricing{Option: *option, EffectivePrice: price})
		}
		c.JSON(http.StatusOK, gin.H{"data": results})
	}
}
