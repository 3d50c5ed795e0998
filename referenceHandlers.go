package main

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/asset_audit_backend/models"
	"github.com/mmdatafocus/asset_audit_backend/utils"
)

func getResourceHandler[T any](funcName string, get func(ctx context.Context, id int) (*T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		result, err := get(c.Request.Context(), id)
		if err != nil {
			respondError(c, funcName, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": result})
	}
}

func createResourceHandler[In, Out any](funcName string, create func(ctx context.Context, input *In) (*Out, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input In
		if !bindJSON(c, &input) {
			return
		}
		result, err := create(c.Request.Context(), &input)
		if err != nil {
			respondError(c, funcName, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": result})
	}
}

// activeOnly is true unless the caller passes includeInactive=true.
func activeOnly(c *gin.Context) bool {
	include, _ := strconv.ParseBool(c.Query("includeInactive"))
	return !include
}

func listEmployeesHandler(c *gin.Context) {
	employees, err := models.ListEmployees(c.Request.Context(), activeOnly(c))
	if err != nil {
		respondError(c, "listEmployeesHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": employees})
}

func listLocationsHandler(c *gin.Context) {
	locations, err := models.ListLocations(c.Request.Context(), activeOnly(c))
	if err != nil {
		respondError(c, "listLocationsHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": locations})
}

func listAssetsHandler(c *gin.Context) {
	var locationId *int
	if raw := c.Query("location_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			respondError(c, "listAssetsHandler", utils.NewValidationError("invalid location_id"))
			return
		}
		locationId = &id
	}
	assets, err := models.ListAssets(c.Request.Context(), locationId)
	if err != nil {
		respondError(c, "listAssetsHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": assets})
}
