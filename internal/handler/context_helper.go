package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-records-api/internal/middleware"
	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/service"
)

func actorFromContext(c *gin.Context) models.Actor {
	claims, ok := middleware.Claims(c)
	if !ok {
		return models.Actor{}
	}
	return models.Actor{UserID: claims.UserID, Role: claims.Role}
}

// cohortQueryFromRequest reads repeated or comma separated batch parameters.
func cohortQueryFromRequest(c *gin.Context) service.CohortQuery {
	var batches []string
	for _, raw := range c.QueryArray("batch") {
		batches = append(batches, strings.Split(raw, ",")...)
	}
	include, _ := strconv.ParseBool(c.Query("include_all"))
	return service.CohortQuery{Batches: batches, IncludeOutsideProgram: include}
}
