package api

import (
	"net/http"

	"bitbucket.org/mmdatafocus/catalog_backend/models"
	"github.com/gin-gonic/gin"
)

func CreateDiscountPolicyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewDiscountPolicy
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		policy, err := models.CreateDiscountPolicy(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": policy})
	}
}

func ListDiscountPoliciesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		policies, err := models.GetDiscountPolicies(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": policies})
	}
}

func GetDiscountPolicyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := intParam(c, "id")
		if !ok {
			return
		}
		policy, err := models.GetDiscountPolicy(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": policy})
	}
}

func UpdateDiscountPolicyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := intParam(c, "id")
		if !ok {
			return
		}
		var input models.NewDiscountPolicy
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		policy, err := models.UpdateDiscountPolicy(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": policy})
	}
}

func DeleteDiscountPolicyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := intParam(c, "id")
		if !ok {
			return
		}
		policy, err := models.DeleteDiscountPolicy(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": policy})
	}
}
