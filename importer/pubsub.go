package importer

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"bitbucket.org/mmdatafocus/catalog_backend/config"
	"bitbucket.org/mmdatafocus/catalog_backend/models"
	"cloud.google.com/go/pubsub"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func importTopicName() string {
	name := strings.TrimSpace(os.Getenv("CATALOG_IMPORT_TOPIC"))
	if name == "" {
		name = "catalog-import"
	}
	return name
}

func promotionTopicName() string {
	name := strings.TrimSpace(os.Getenv("CATALOG_PROMOTION_TOPIC"))
	if name == "" {
		name = "catalog-promotion"
	}
	return name
}

func publish(ctx context.Context, topicName string, payload interface{}) (string, error) {
	client, err := config.GetClient(ctx)
	if err != nil {
		return "", err
	}

	topic := client.Topic(topicName)
	if config.EnvBoolDefault("CATALOG_CREATE_TOPIC", false) {
		topic, err = config.CreateTopicIfNotExists(client, topicName)
		if err != nil {
			return "", err
		}
	}

	data, _ := json.Marshal(payload)
	res := topic.Publish(ctx, &pubsub.Message{Data: data})
	return res.Get(ctx)
}

// PublishImportTask enqueues an ingestion run and binds the broker's message
// id to the job as its task identity.
func PublishImportTask(ctx context.Context, payload *ImportTaskPayload) error {
	if payload.CorrelationId == "" {
		payload.CorrelationId = uuid.NewString()
	}
	messageId, err := publish(ctx, importTopicName(), payload)
	if err != nil {
		return err
	}
	return models.BindJobTask(ctx, payload.JobId, messageId)
}

func PublishPromotionTask(ctx context.Context, payload *PromotionTaskPayload) error {
	if payload.CorrelationId == "" {
		payload.CorrelationId = uuid.NewString()
	}
	messageId, err := publish(ctx, promotionTopicName(), payload)
	if err != nil {
		return err
	}
	return models.BindJobTask(ctx, payload.JobId, messageId)
}

type pubSubPushEnvelope struct {
	Message struct {
		Data []byte `json:"data"`
		ID   string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// ImportPushHandler receives Pub/Sub push deliveries for import tasks.
// Delivery is at-least-once, so duplicates are dropped via the message
// record; every outcome acks with 204 because a nack would just redeliver
// a payload that cannot get better.
func ImportPushHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !config.EnvBoolDefault("ENABLE_CATALOG_PUBSUB_PUSH_ENDPOINT", true) {
			c.Status(204)
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(204)
			return
		}

		var envelope pubSubPushEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			c.Status(204)
			return
		}

		var payload ImportTaskPayload
		if err := json.Unmarshal(envelope.Message.Data, &payload); err != nil {
			c.Status(204)
			return
		}
		if payload.JobId == 0 || payload.VersionId == 0 {
			c.Status(204)
			return
		}

		seen, err := models.RecordTaskMessage(c.Request.Context(), envelope.Message.ID, payload.JobId)
		if err == nil && seen {
			c.Status(204)
			return
		}

		_ = RunImport(c.Request.Context(), &payload)
		c.Status(204)
	}
}

// PromotionPushHandler is the push counterpart for promotion tasks.
func PromotionPushHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !config.EnvBoolDefault("ENABLE_CATALOG_PUBSUB_PUSH_ENDPOINT", true) {
			c.Status(204)
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(204)
			return
		}

		var envelope pubSubPushEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			c.Status(204)
			return
		}

		var payload PromotionTaskPayload
		if err := json.Unmarshal(envelope.Message.Data, &payload); err != nil {
			c.Status(204)
			return
		}
		if payload.JobId == 0 || payload.VersionId == 0 {
			c.Status(204)
			return
		}

		seen, err := models.RecordTaskMessage(c.Request.Context(), envelope.Message.ID, payload.JobId)
		if err == nil && seen {
			c.Status(204)
			return
		}

		_ = RunPromotion(c.Request.Context(), &payload)
		c.Status(204)
	}
}
