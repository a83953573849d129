// Package billing decides whether Slack traffic may be sent for an
// organization based on its subscription status.
package billing

import (
	"math"
	"time"

	"github.com/threadrelay/threadrelay/internal/store"
)

// StatusPastDue is the subscription status that starts the grace period.
// Every other status keeps the organization fully serviced.
const StatusPastDue = "past_due"

// GracePeriod is how long messages keep flowing after a subscription became
// past due. The interval is half-open: at exactly GracePeriod elapsed the
// service is paused.
const GracePeriod = 7 * 24 * time.Hour

// warningInterval is the minimum time between two past-due warnings.
const warningInterval = 24 * time.Hour

// Decision is the outcome of evaluating the billing gate for one event.
// The caller is responsible for executing the side effects it requests.
type Decision struct {
	// Continue reports whether the event may be processed at all.
	Continue bool
	// SendWarning requests posting a grace-period warning.
	SendWarning bool
	// SendServicePaused requests posting the one-time paused notice.
	SendServicePaused bool
	// RecordStart requests persisting the start of a past-due episode.
	RecordStart bool
	// ClearStatus requests deleting a stale past-due episode.
	ClearStatus bool
	// DaysRemaining is the number of grace-period days left, rounded up.
	DaysRemaining int
}

// Evaluate is a pure function of the subscription status, the persisted
// past-due episode (nil when none exists) and the current time.
func Evaluate(subscriptionStatus string, rec *store.BillingStatus, now time.Time) Decision {
	if subscriptionStatus != StatusPastDue {
		return Decision{
			Continue:    true,
			ClearStatus: rec != nil,
		}
	}

	if rec == nil {
		return Decision{
			Continue:      true,
			SendWarning:   true,
			RecordStart:   true,
			DaysRemaining: int(GracePeriod / (24 * time.Hour)),
		}
	}

	elapsed := now.Sub(rec.PastDueStartedAt)
	if elapsed >= GracePeriod {
		return Decision{
			SendServicePaused: rec.ServicePausedSentAt == nil,
		}
	}

	sendWarning := rec.LastWarningSentAt == nil ||
		now.Sub(*rec.LastWarningSentAt) >= warningInterval

	remaining := GracePeriod - elapsed
	return Decision{
		Continue:      true,
		SendWarning:   sendWarning,
		DaysRemaining: int(math.Ceil(remaining.Hours() / 24)),
	}
}
