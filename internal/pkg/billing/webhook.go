package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/ShopifyBilling/app/models"
	"github.com/ManuelReschke/ShopifyBilling/app/repository"
)

const TopicAppSubscriptionsUpdate = "app_subscriptions/update"

// RecordWebhookEvent persists webhook payloads idempotently.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookDelivery) (bool, *models.WebhookEvent, error) {
	_ = ctx
	webhookID := strings.TrimSpace(in.WebhookID)
	if webhookID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		webhookID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.WebhookEvent{
		Topic:          strings.TrimSpace(in.Topic),
		ShopDomain:     models.NormalizeShopDomain(in.ShopDomain),
		WebhookID:      webhookID,
		PayloadJSON:    in.PayloadJSON,
		SignatureValid: in.SignatureValid,
	}
	return s.repos.Webhook.CreateIfNotExists(event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repos.Webhook.MarkProcessed(webhookEventID, errMsg)
}

// ApplySubscriptionUpdate syncs a charge status change pushed by the
// platform. A cancelled or expired charge that was the shop's current plan
// removes the plan from the shop.
func (s *Service) ApplySubscriptionUpdate(ctx context.Context, shopDomain, payload string) (*models.Charge, error) {
	var update SubscriptionUpdate
	if err := json.Unmarshal([]byte(payload), &update); err != nil {
		return nil, fmt.Errorf("decode subscription update: %w", err)
	}
	chargeID, ok := update.ChargeID()
	if !ok {
		return nil, fmt.Errorf("subscription update without charge id")
	}

	shop, err := s.ResolveShop(shopDomain)
	if err != nil {
		return nil, err
	}

	charge, err := s.repos.Charge.GetByChargeIDForShop(chargeID, shop.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fiberlog.Infof("[Billing] Ignoring update for unknown charge %d of %s", chargeID, shop.Domain())
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	status := NormalizeRemoteStatus(update.AppSubscription.Status)
	if status == charge.Status || status == models.ChargeStatusPending {
		return charge, nil
	}
	// Only the confirmation callback activates a pending charge and assigns
	// its plan.
	if charge.Status == models.ChargeStatusPending && (status == models.ChargeStatusAccepted || status == models.ChargeStatusFrozen) {
		fiberlog.Infof("[Billing] Charge %d of %s accepted remotely, waiting for the callback", chargeID, shop.Domain())
		return charge, nil
	}

	now := s.now()
	err = s.repos.Transaction(func(tx *repository.Repositories) error {
		if err := tx.Charge.UpdateStatus(charge.ChargeID, status, now); err != nil {
			return err
		}
		ends := status == models.ChargeStatusCancelled || status == models.ChargeStatusExpired
		current := shop.PlanID != nil && charge.PlanID != nil && *shop.PlanID == *charge.PlanID && charge.IsActive()
		if ends && current {
			return tx.Shop.AssignPlan(shop.ID, nil)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	fiberlog.Infof("[Billing] Charge %d of %s is now %s", charge.ChargeID, shop.Domain(), status)
	charge.Status = status
	return charge, nil
}
