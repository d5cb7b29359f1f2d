package controllers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/billing"
	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/metrics"
	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/signature"
)

// HandleAppSubscriptionWebhook processes app_subscriptions/update deliveries.
func (bc *BillingController) HandleAppSubscriptionWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.Body()...)
	topic := strings.TrimSpace(c.Get("X-Shopify-Topic"))
	shopDomain := strings.TrimSpace(c.Get("X-Shopify-Shop-Domain"))
	webhookID := firstHeaderValue(c, "X-Shopify-Webhook-Id", "X-Shopify-Event-Id")
	hmacHeader := strings.TrimSpace(c.Get("X-Shopify-Hmac-Sha256"))
	secret := bc.svc.Config().APISecret

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if secret == "" || !signature.VerifyBytes(rawBody, hmacHeader, []byte(secret), signature.EncodingBase64) {
		metrics.SignatureFailures.WithLabelValues("webhook").Inc()
		metrics.WebhooksReceived.WithLabelValues(topic, "invalid_signature").Inc()
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
	}

	created, stored, err := bc.svc.RecordWebhookEvent(ctx, billing.WebhookDelivery{
		Topic:          topic,
		ShopDomain:     shopDomain,
		WebhookID:      webhookID,
		PayloadJSON:    string(rawBody),
		SignatureValid: true,
	})
	if err != nil {
		metrics.WebhooksReceived.WithLabelValues(topic, "persist_failed").Inc()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_persist_failed"})
	}
	if !created {
		metrics.WebhooksReceived.WithLabelValues(topic, "duplicate").Inc()
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "duplicate": true})
	}
	if topic != billing.TopicAppSubscriptionsUpdate {
		metrics.WebhooksReceived.WithLabelValues(topic, "ignored").Inc()
		_ = bc.svc.MarkWebhookProcessed(ctx, stored.ID, nil)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "ignored": true})
	}

	_, applyErr := bc.svc.ApplySubscriptionUpdate(ctx, shopDomain, string(rawBody))
	_ = bc.svc.MarkWebhookProcessed(ctx, stored.ID, applyErr)
	if applyErr != nil {
		if errors.Is(applyErr, billing.ErrShopNotFound) || errors.Is(applyErr, billing.ErrMissingShopDomain) {
			metrics.WebhooksReceived.WithLabelValues(topic, "ignored").Inc()
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "ignored": true})
		}
		metrics.WebhooksReceived.WithLabelValues(topic, "failed").Inc()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "subscription_sync_failed"})
	}

	metrics.WebhooksReceived.WithLabelValues(topic, "processed").Inc()
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}

func firstHeaderValue(c *fiber.Ctx, keys ...string) string {
	for _, k := range keys {
		v := strings.TrimSpace(c.Get(k))
		if v != "" {
			return v
		}
	}
	return ""
}
