package billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ManuelReschke/ShopifyBilling/app/models"
	"github.com/ManuelReschke/ShopifyBilling/app/repository"
	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/env"
	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/metrics"
)

// Guard serializes activation of a charge across instances.
type Guard interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Service runs the billing flow: starting charges, activating them after
// merchant confirmation and recording usage.
type Service struct {
	repos  *repository.Repositories
	api    APIClient
	cfg    env.Config
	guard  Guard
	flight singleflight.Group
	now    func() time.Time
}

type Option func(*Service)

// WithGuard enables the cross-instance activation lock.
func WithGuard(g Guard) Option {
	return func(s *Service) { s.guard = g }
}

// WithClock overrides time.Now, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a billing service from injected repositories and API client.
func NewService(repos *repository.Repositories, api APIClient, cfg env.Config, opts ...Option) *Service {
	s := &Service{
		repos: repos,
		api:   api,
		cfg:   cfg,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the configuration the service was built with.
func (s *Service) Config() env.Config {
	return s.cfg
}

// ResolveShop loads an installed shop by domain.
func (s *Service) ResolveShop(domain string) (*models.Shop, error) {
	domain = models.NormalizeShopDomain(domain)
	if domain == "" {
		return nil, ErrMissingShopDomain
	}
	shop, err := s.repos.Shop.GetByDomain(domain)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrShopNotFound
	}
	return shop, err
}

// Begin creates a charge for the requested plan, or the install plan when
// planID is nil, and returns the confirmation URL unchanged.
func (s *Service) Begin(ctx context.Context, shop *models.Shop, planID *uint, host string) (*Checkout, error) {
	plan, err := s.resolvePlan(planID)
	if err != nil {
		return nil, err
	}

	var current *models.Charge
	if c, err := s.repos.Charge.FindLatestActive(shop.ID); err == nil {
		current = c
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	returnURL := ReturnURL(s.cfg.AppURL, s.cfg.BillingRedirect, plan.ID, shop.Domain(), host)
	params := BuildChargeParams(plan, returnURL, TrialDaysFor(plan, current, s.now()), s.cfg.TestCharges)

	remote, err := s.api.CreateCharge(ctx, shop, plan.ChargeType(), params)
	if err != nil {
		metrics.APIErrors.WithLabelValues("create_charge").Inc()
		return nil, fmt.Errorf("create charge for %s: %w", shop.Domain(), err)
	}

	charge := &models.Charge{
		ChargeID:   remote.ID,
		Type:       plan.ChargeType(),
		Status:     models.ChargeStatusPending,
		Name:       plan.Name,
		Price:      plan.Price,
		Terms:      params.Terms,
		Test:       params.Test,
		TrialDays:  params.TrialDays,
		ShopID:     shop.ID,
		PlanID:     &plan.ID,
		RawPayload: datatypes.JSON(remote.Raw),
	}
	if params.CappedAmount != nil {
		charge.CappedAmount = *params.CappedAmount
	}
	if err := s.repos.Charge.Upsert(charge); err != nil {
		return nil, err
	}

	metrics.ChargesCreated.WithLabelValues(charge.Type).Inc()
	fiberlog.Infof("[Billing] Charge %d created for %s (plan %d)", remote.ID, shop.Domain(), plan.ID)

	return &Checkout{
		ChargeID:        remote.ID,
		ConfirmationURL: remote.ConfirmationURL,
		Plan:            plan,
		State:           StateAwaitingConfirmation,
	}, nil
}

// Activate activates a confirmed charge and records it as the shop's current
// plan. Nothing is written locally when the remote activation fails.
func (s *Service) Activate(ctx context.Context, shop *models.Shop, planID uint, chargeID int64) (*models.Charge, error) {
	key := strconv.FormatUint(uint64(shop.ID), 10) + ":" + strconv.FormatInt(chargeID, 10)
	v, err, _ := s.flight.Do(key, func() (interface{}, error) {
		return s.activate(ctx, shop, planID, chargeID, key)
	})
	if err != nil {
		return nil, err
	}
	charge := v.(*models.Charge)
	shop.PlanID = charge.PlanID
	return charge, nil
}

func (s *Service) activate(ctx context.Context, shop *models.Shop, planID uint, chargeID int64, key string) (*models.Charge, error) {
	existing, err := s.repos.Charge.GetByChargeIDForShop(chargeID, shop.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		existing = nil
	} else if err != nil {
		return nil, err
	}
	if existing != nil && existing.PlanID != nil && *existing.PlanID != planID {
		return nil, fmt.Errorf("charge %d was created for plan %d, not %d: %w", chargeID, *existing.PlanID, planID, ErrPlanMismatch)
	}
	if existing != nil && existing.IsActive() && s.planAssigned(shop.ID, existing) {
		fiberlog.Infof("[Billing] Charge %d already active for %s", chargeID, shop.Domain())
		return existing, nil
	}

	if s.guard != nil {
		ok, err := s.guard.Acquire(ctx, key, s.cfg.ActivationTTL)
		if err != nil {
			fiberlog.Warnf("[Billing] Activation guard unavailable: %v", err)
		} else if !ok {
			return nil, ErrActivationInProgress
		} else {
			defer func() {
				if err := s.guard.Release(context.Background(), key); err != nil {
					fiberlog.Warnf("[Billing] Failed to release activation guard %s: %v", key, err)
				}
			}()
		}
	}

	plan, err := s.resolvePlan(&planID)
	if err != nil {
		return nil, err
	}

	// A charge accepted earlier whose plan never reached the shop is already
	// active remotely; only its current state is fetched.
	op, call := "activate_charge", s.api.ActivateCharge
	if existing != nil && existing.IsActive() {
		op, call = "get_charge", s.api.GetCharge
	}
	remote, err := call(ctx, shop, plan.ChargeType(), chargeID)
	if err != nil {
		metrics.APIErrors.WithLabelValues(op).Inc()
		return nil, fmt.Errorf("activate charge %d: %w", chargeID, err)
	}

	now := s.now()
	status := NormalizeRemoteStatus(remote.Status)
	if status != models.ChargeStatusAccepted {
		if err := s.repos.Charge.UpdateStatus(chargeID, status, now); err != nil {
			fiberlog.Warnf("[Billing] Failed to store status %s for charge %d: %v", status, chargeID, err)
		}
		metrics.ChargesDeclined.WithLabelValues(status).Inc()
		return nil, fmt.Errorf("charge %d is %s: %w", chargeID, status, ErrChargeNotAccepted)
	}

	charge := s.acceptedCharge(shop, plan, chargeID, remote, now)
	err = s.repos.Transaction(func(tx *repository.Repositories) error {
		cancelled, err := tx.Charge.CancelActive(shop.ID, charge.ChargeID, now)
		if err != nil {
			return err
		}
		if cancelled > 0 {
			fiberlog.Infof("[Billing] Cancelled %d previous charge(s) for %s", cancelled, shop.Domain())
		}
		if err := tx.Charge.Upsert(charge); err != nil {
			return err
		}
		return tx.Shop.AssignPlan(shop.ID, &plan.ID)
	})
	if err != nil {
		return nil, err
	}

	shop.Plan = plan
	metrics.ChargesActivated.WithLabelValues(charge.Type).Inc()
	fiberlog.Infof("[Billing] Charge %d activated for %s (plan %d)", charge.ChargeID, shop.Domain(), plan.ID)
	return charge, nil
}

// planAssigned reports whether the stored shop is billed for the charge's plan.
func (s *Service) planAssigned(shopID uint, charge *models.Charge) bool {
	stored, err := s.repos.Shop.GetByID(shopID)
	if err != nil || !stored.HasPlan() || charge.PlanID == nil {
		return false
	}
	return *stored.PlanID == *charge.PlanID
}

func (s *Service) acceptedCharge(shop *models.Shop, plan *models.Plan, chargeID int64, remote *RemoteCharge, now time.Time) *models.Charge {
	id := remote.ID
	if id == 0 {
		id = chargeID
	}
	charge := &models.Charge{
		ChargeID:     id,
		Type:         plan.ChargeType(),
		Status:       models.ChargeStatusAccepted,
		Name:         plan.Name,
		Price:        plan.Price,
		CappedAmount: plan.CappedAmount,
		Terms:        plan.Terms,
		Test:         plan.Test || s.cfg.TestCharges,
		TrialDays:    remote.TrialDays,
		BillingOn:    parseRemoteTime(remote.BillingOn),
		ActivatedOn:  parseRemoteTime(remote.ActivatedOn),
		TrialEndsOn:  parseRemoteTime(remote.TrialEndsOn),
		ShopID:       shop.ID,
		PlanID:       &plan.ID,
		RawPayload:   datatypes.JSON(remote.Raw),
	}
	if remote.Test != nil {
		charge.Test = *remote.Test
	}
	if !remote.Price.IsZero() {
		charge.Price = remote.Price
	}
	if charge.ActivatedOn == nil {
		charge.ActivatedOn = &now
	}
	if charge.TrialEndsOn == nil && charge.TrialDays > 0 {
		ends := now.AddDate(0, 0, charge.TrialDays)
		charge.TrialEndsOn = &ends
	}
	return charge
}

func (s *Service) resolvePlan(planID *uint) (*models.Plan, error) {
	var (
		plan *models.Plan
		err  error
	)
	if planID == nil {
		plan, err = s.repos.Plan.GetOnInstall()
	} else {
		plan, err = s.repos.Plan.GetByID(*planID)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoPlan
	}
	if err != nil {
		return nil, err
	}
	return plan, nil
}
