package billing

import (
	"errors"
	"fmt"
)

var (
	// ErrNoPlan means there is no plan to bill: the requested plan does not
	// exist or no plan is flagged for install.
	ErrNoPlan = errors.New("billing: no plan to bill")
	// ErrMissingShopDomain means the request carries no shop identity.
	ErrMissingShopDomain = errors.New("billing: missing shop domain")
	// ErrShopNotAuthenticated means the shop did not come from a signed launch
	// or an existing session.
	ErrShopNotAuthenticated = errors.New("billing: shop not authenticated")
	// ErrShopNotFound means the shop domain is not installed.
	ErrShopNotFound = errors.New("billing: shop not found")
	// ErrInvalidSignature means a signed request did not verify.
	ErrInvalidSignature = errors.New("billing: invalid signature")
	// ErrNoActiveCharge means the shop has no accepted recurring charge to
	// attach usage to.
	ErrNoActiveCharge = errors.New("billing: no active recurring charge")
	// ErrChargeNotAccepted means the merchant declined or the charge expired
	// before activation.
	ErrChargeNotAccepted = errors.New("billing: charge not accepted")
	// ErrPlanMismatch means the return URL names a different plan than the
	// one the charge was created for.
	ErrPlanMismatch = errors.New("billing: charge belongs to another plan")
	// ErrActivationInProgress means another request is activating the same charge.
	ErrActivationInProgress = errors.New("billing: activation already in progress")
	// ErrBillingAPI is the parent of every remote billing API failure.
	ErrBillingAPI = errors.New("billing: api request failed")
)

// APIError describes a failed call to the remote billing API. StatusCode is
// zero for transport failures such as timeouts.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("billing api %s %s failed: %v", e.Method, e.Path, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("billing api %s %s failed: status=%d: %v", e.Method, e.Path, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("billing api %s %s failed: status=%d body=%s", e.Method, e.Path, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func (e *APIError) Is(target error) bool {
	return target == ErrBillingAPI
}
