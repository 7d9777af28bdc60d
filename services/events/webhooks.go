package events

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"stitchtherapy/database/repository/webhook"
	"stitchtherapy/models"
	"stitchtherapy/utils"

	"go.uber.org/zap"
)

const dispatchTimeout = 5 * time.Second

// WebhookDispatcher pushes domain events to registered external endpoints,
// signing each delivery so receivers can authenticate the sender.
type WebhookDispatcher struct {
	repo   webhookRepo.WebhookRepository
	client *http.Client
	logger *zap.Logger
}

// NewWebhookDispatcher builds a dispatcher over the webhook key store.
func NewWebhookDispatcher(repo webhookRepo.WebhookRepository) *WebhookDispatcher {
	return &WebhookDispatcher{
		repo:   repo,
		client: &http.Client{Timeout: dispatchTimeout},
		logger: utils.GetLogger().Named("webhooks"),
	}
}

// Handle is the bus subscription entry point. Deliveries run off the
// publisher's goroutine so a slow endpoint never stalls a booking write.
func (d *WebhookDispatcher) Handle(event models.DomainEvent) {
	go d.dispatch(event)
}

func (d *WebhookDispatcher) dispatch(event models.DomainEvent) {
	keys, err := d.repo.GetActiveForEvent(event.Type)
	if err != nil {
		d.logger.Error("failed to load webhook keys", zap.Error(err))
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		d.logger.Error("failed to encode event", zap.String("event", event.Type), zap.Error(err))
		return
	}

	for _, key := range keys {
		status, err := d.deliver(key, event, body)
		success := err == nil && status < 300
		if err != nil {
			d.logger.Warn("webhook delivery failed",
				zap.String("key", key.ID),
				zap.String("url", key.URL),
				zap.Error(err))
		}
		if recErr := d.repo.RecordResult(key.ID, status, success); recErr != nil {
			d.logger.Error("failed to record webhook result", zap.String("key", key.ID), zap.Error(recErr))
		}
	}
}

func (d *WebhookDispatcher) deliver(key models.WebhookKey, event models.DomainEvent, body []byte) (int, error) {
	req, err := http.NewRequest(http.MethodPost, key.URL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build webhook request: %w", err)
	}

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Event", event.Type)
	req.Header.Set("X-Webhook-Timestamp", timestamp)
	req.Header.Set("X-Webhook-Signature", Sign(key.SecretHash, timestamp, body))

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("deliver webhook: %w", err)
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

// Sign computes the delivery signature: HMAC-SHA256 of "timestamp.body"
// keyed with the endpoint's secret.
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
