package importer

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"sync"

	"bitbucket.org/mmdatafocus/catalog_backend/config"
	"bitbucket.org/mmdatafocus/catalog_backend/utils"
	"cloud.google.com/go/pubsub"
	"github.com/sirupsen/logrus"
)

// one import or promotion at a time per version; versions run concurrently
var (
	versionMutexMap = make(map[int]*sync.Mutex)
	globalMutex     = &sync.Mutex{}
)

func versionMutex(versionId int) *sync.Mutex {
	globalMutex.Lock()
	defer globalMutex.Unlock()
	mutex, exists := versionMutexMap[versionId]
	if !exists {
		mutex = &sync.Mutex{}
		versionMutexMap[versionId] = mutex
	}
	return mutex
}

// RunImportWorker subscribes to the import topic and executes ingestion
// tasks pulled from the broker. Failed tasks nack for redelivery; the job
// retry bound caps how often a redelivery actually re-runs.
func RunImportWorker(ctx context.Context) error {
	return runWorker(ctx, importTopicName(), importSubscriptionName(), func(ctx context.Context, data []byte, logger *logrus.Logger) error {
		var payload ImportTaskPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			config.LogError(logger, moduleName, "RunImportWorker", "Unmarshaling task payload", data, err)
			return nil
		}
		mutex := versionMutex(payload.VersionId)
		mutex.Lock()
		defer mutex.Unlock()

		ctx = utils.SetCorrelationIdInContext(ctx, payload.CorrelationId)
		ctx = utils.SetUserNameInContext(ctx, "System")
		return RunImport(ctx, &payload)
	})
}

// RunPromotionWorker is the promotion-side counterpart.
func RunPromotionWorker(ctx context.Context) error {
	return runWorker(ctx, promotionTopicName(), promotionSubscriptionName(), func(ctx context.Context, data []byte, logger *logrus.Logger) error {
		var payload PromotionTaskPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			config.LogError(logger, moduleName, "RunPromotionWorker", "Unmarshaling task payload", data, err)
			return nil
		}
		mutex := versionMutex(payload.VersionId)
		mutex.Lock()
		defer mutex.Unlock()

		ctx = utils.SetCorrelationIdInContext(ctx, payload.CorrelationId)
		ctx = utils.SetUserNameInContext(ctx, "System")
		return RunPromotion(ctx, &payload)
	})
}

func importSubscriptionName() string {
	name := strings.TrimSpace(os.Getenv("CATALOG_IMPORT_SUBSCRIPTION"))
	if name == "" {
		name = "catalog-import-worker"
	}
	return name
}

func promotionSubscriptionName() string {
	name := strings.TrimSpace(os.Getenv("CATALOG_PROMOTION_SUBSCRIPTION"))
	if name == "" {
		name = "catalog-promotion-worker"
	}
	return name
}

func runWorker(ctx context.Context, topicName string, subscriptionName string, handle func(context.Context, []byte, *logrus.Logger) error) error {
	logger := config.GetLogger()
	client, err := config.GetClient(ctx)
	if err != nil {
		return err
	}
	topic, err := config.CreateTopicIfNotExists(client, topicName)
	if err != nil {
		return err
	}
	sub, err := config.CreateSubscriptionIfNotExists(client, subscriptionName, topic)
	if err != nil {
		return err
	}
	sub.ReceiveSettings.MaxOutstandingMessages = 10

	callback := func(ctx context.Context, msg *pubsub.Message) {
		if err := handle(ctx, msg.Data, logger); err != nil {
			logger.WithFields(logrus.Fields{
				"field":      "importer",
				"topic":      topicName,
				"message_id": msg.ID,
			}).Error("task processing failed: " + err.Error())
			msg.Nack()
			return
		}
		msg.Ack()
	}

	go func() {
		if err := sub.Receive(ctx, callback); err != nil {
			config.LogError(logger, moduleName, "runWorker", "Failed to receive messages", topicName, err)
		}
	}()

	return nil
}
