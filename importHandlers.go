package main

import (
	"context"
	"net/http"

	"github.com/99designs/gqlgen/graphql"
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/asset_audit_backend/utils"
)

type xlsxImporter func(ctx context.Context, file graphql.Upload) (utils.BatchResult, error)

// importHandler reads the multipart "file" field and hands it to an xlsx importer.
func importHandler(funcName string, importer xlsxImporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := utils.RequireBusinessId(c.Request.Context()); err != nil {
			respondError(c, funcName, err)
			return
		}
		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			respondError(c, funcName, err)
			return
		}
		defer file.Close()

		result, err := importer(c.Request.Context(), graphql.Upload{
			File:        file,
			Filename:    fileHeader.Filename,
			Size:        fileHeader.Size,
			ContentType: fileHeader.Header.Get("Content-Type"),
		})
		if err != nil {
			respondError(c, funcName, err)
			return
		}
		c.JSON(batchStatus(result), result)
	}
}
