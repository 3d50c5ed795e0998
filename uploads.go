package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mmdatafocus/asset_audit_backend/config"
	"github.com/mmdatafocus/asset_audit_backend/models"
	"github.com/mmdatafocus/asset_audit_backend/utils"
	"github.com/sirupsen/logrus"
)

const evidencePhotoField = "file"

// uploadObject is swapped in tests.
var uploadObject = utils.UploadBytesToGCS

func evidenceObjectKey(businessId string, recordId int) string {
	return fmt.Sprintf("evidence/%s/audit-record-%d-%s.jpg", sanitizeSegment(businessId), recordId, uuid.NewString())
}

func sanitizeSegment(input string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, strings.TrimSpace(input))
}

// evidencePhotoHandler stores a resized JPEG for an audit record and links it.
func evidencePhotoHandler(c *gin.Context) {
	logger := config.GetLogger()
	ctx := c.Request.Context()

	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		respondError(c, "evidencePhotoHandler", err)
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	fileHeader, err := c.FormFile(evidencePhotoField)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fileHeader.Size > utils.MaxPhotoSizeBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file size exceeds 5MB limit"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, "evidencePhotoHandler", err)
		return
	}
	defer file.Close()

	data, err := utils.NormalizeEvidencePhoto(file)
	if err != nil {
		respondError(c, "evidencePhotoHandler", err)
		return
	}
	if _, err := models.GetAuditAssetRecord(ctx, id); err != nil {
		respondError(c, "evidencePhotoHandler", err)
		return
	}

	objectKey := evidenceObjectKey(businessId, id)
	if err := uploadObject(ctx, objectKey, data, "image/jpeg"); err != nil {
		logger.WithFields(logrus.Fields{
			"provider":       "gcs",
			"correlation_id": requestIDFromHeaders(c),
		}).Error("upload error: " + err.Error())
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to store photo"})
		return
	}
	record, err := models.SetAuditRecordPhoto(ctx, id, utils.BuildObjectAccessURL(objectKey))
	if err != nil {
		respondError(c, "evidencePhotoHandler", err)
		return
	}

	logger.WithFields(logrus.Fields{
		"business_id":    businessId,
		"record_id":      id,
		"object_key":     objectKey,
		"bytes":          len(data),
		"correlation_id": requestIDFromHeaders(c),
	}).Info("[upload.photo]")
	c.JSON(http.StatusOK, gin.H{"data": record})
}

func requestIDFromHeaders(c *gin.Context) string {
	if id, ok := utils.GetCorrelationIdFromContext(c.Request.Context()); ok && id != "" {
		return id
	}
	if id := strings.TrimSpace(c.GetHeader("X-Request-Id")); id != "" {
		return id
	}
	return ""
}
