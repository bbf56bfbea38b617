package api

import (
	"net/http"

	"bitbucket.org/mmdatafocus/catalog_backend/models"
	"github.com/gin-gonic/gin"
)

func ListEventsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := models.EventFilter{
			ReferenceID:   intQuery(c, "reference_id"),
			ReferenceType: c.Query("reference_type"),
			Limit:         intQuery(c, "limit"),
			Offset:        intQuery(c, "offset"),
		}
		events, err := models.ListEvents(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": events})
	}
}

func GetEventHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := intParam(c, "id")
		if !ok {
			return
		}
		event, err := models.GetEvent(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": event})
	}
}
