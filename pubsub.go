package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bsm/redislock"
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/asset_audit_backend/config"
	"github.com/mmdatafocus/asset_audit_backend/models"
	"github.com/mmdatafocus/asset_audit_backend/models/reports"
	"github.com/mmdatafocus/asset_audit_backend/utils"
	"github.com/sirupsen/logrus"
)

type PubSubMessage struct {
	Message struct {
		Data []byte `json:"data,omitempty"`
		ID   string `json:"id"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// buildReport is swapped in tests.
var buildReport = func(ctx context.Context, planId int) error {
	_, err := reports.GetAuditSummaryReport(ctx, planId)
	return err
}

// decodeAuditEvent unwraps a push envelope. Pub/Sub base64 encodes Data; []byte unmarshalling decodes it.
func decodeAuditEvent(body []byte) (PubSubMessage, config.AuditEvent, error) {
	var msg PubSubMessage
	var event config.AuditEvent
	if err := json.Unmarshal(body, &msg); err != nil {
		return msg, event, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if err := json.Unmarshal(msg.Message.Data, &event); err != nil {
		return msg, event, fmt.Errorf("unmarshal audit event: %w", err)
	}
	if event.BusinessId == "" || event.EventType == "" {
		return msg, event, errors.New("business_id/event_type required")
	}
	return msg, event, nil
}

// processAuditEvent rebuilds the cached summary of a completed plan so the first reader gets it warm.
func processAuditEvent(ctx context.Context, event config.AuditEvent) error {
	if event.EventType != models.EventAuditPlanCompleted || event.ReferenceType != "AuditPlan" {
		return nil
	}
	models.InvalidateAuditReportCache(event.BusinessId, event.ReferenceId)
	if !config.ReportCacheEnabled() {
		return nil
	}
	return buildReport(ctx, event.ReferenceId)
}

// auditPubSubHandler consumes audit events pushed by Pub/Sub.
// 204 acks; 500 asks Pub/Sub to redeliver. Malformed messages are acked so they do not loop.
func auditPubSubHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			config.LogError(logger, "pubsub.go", "auditPubSubHandler", "io.ReadAll", nil, err)
			c.Status(http.StatusNoContent)
			return
		}
		msg, event, err := decodeAuditEvent(body)
		if err != nil {
			config.LogError(logger, "pubsub.go", "auditPubSubHandler", "decodeAuditEvent", string(body), err)
			c.Status(http.StatusNoContent)
			return
		}

		correlationID := event.CorrelationId
		if correlationID == "" {
			correlationID = msg.Message.ID
		}
		fields := logrus.Fields{
			"field":          "auditPubSubHandler",
			"business_id":    event.BusinessId,
			"event_type":     event.EventType,
			"reference_id":   event.ReferenceId,
			"message_id":     msg.Message.ID,
			"correlation_id": correlationID,
		}

		// The lock only keeps concurrent deliveries from rebuilding the same report twice.
		var lock *redislock.Lock
		if redisLock := config.GetRedisLock(); redisLock == nil {
			logger.WithFields(fields).Warn("redis lock not ready; proceeding without redis lock")
		} else {
			key := fmt.Sprintf("lock:%s:AuditPlan:%d", event.BusinessId, event.ReferenceId)
			lock, err = redisLock.Obtain(c.Request.Context(), key, 30*time.Second, nil)
			if errors.Is(err, redislock.ErrNotObtained) {
				logger.WithFields(fields).Info("report rebuild already running; ack")
				c.Status(http.StatusNoContent)
				return
			} else if err != nil {
				logger.WithFields(fields).Warn("error obtaining redis lock; proceeding without redis lock: " + err.Error())
				lock = nil
			}
		}
		defer func() {
			if lock == nil {
				return
			}
			if releaseErr := lock.Release(c.Request.Context()); releaseErr != nil {
				logger.WithFields(fields).Warn("failed to release redis lock: " + releaseErr.Error())
			}
		}()

		ctx := utils.SetBusinessIdInContext(c.Request.Context(), event.BusinessId)
		ctx = utils.SetUserIdInContext(ctx, 0)
		ctx = utils.SetUserNameInContext(ctx, "System")
		ctx = utils.SetCorrelationIdInContext(ctx, correlationID)
		if err := processAuditEvent(ctx, event); err != nil {
			logger.WithFields(fields).Error("pubsub processing failed: " + err.Error())
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
