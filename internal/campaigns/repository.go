package campaigns

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("campaigns: not found")
	ErrInvalidArgument = errors.New("campaigns: invalid argument")

	// ErrPrecondition marks send requests refused before the campaign leaves DRAFT.
	ErrPrecondition = errors.New("campaigns: send precondition failed")
	ErrNoTemplate   = preconditionError("no template assigned")
	ErrNoRecipients = preconditionError("no valid recipients")
	ErrNoSenders    = preconditionError("no sender identities")

	ErrAlreadySending     = errors.New("campaigns: campaign is already sending")
	ErrNotSendable        = errors.New("campaigns: campaign is not in a sendable state")
	ErrSendCapacity       = errors.New("campaigns: organization send capacity reached")
	ErrNoFailedRecipients = errors.New("campaigns: no failed recipients to recover")
)

type precondition struct{ msg string }

func preconditionError(msg string) error { return &precondition{msg: msg} }

func (e *precondition) Error() string        { return "campaigns: " + e.msg }
func (e *precondition) Is(target error) bool { return target == ErrPrecondition }

// Repository is the persistence contract for campaigns and their delivery logs.
type Repository interface {
	Create(ctx context.Context, c Campaign) error
	Get(ctx context.Context, organizationID, id string) (Campaign, error)
	List(ctx context.Context, organizationID string) ([]Campaign, error)

	// TransitionStatus moves the campaign to `to` only if its current status is one of `from`.
	// It stamps started_at when entering SENDING and completed_at when entering COMPLETED.
	// applied is false when the guard did not match.
	TransitionStatus(ctx context.Context, organizationID, id string, from []Status, to Status, at time.Time) (applied bool, err error)

	// Delete removes the campaign and its delivery logs.
	Delete(ctx context.Context, organizationID, id string) error

	AppendLog(ctx context.Context, l DeliveryLog) error
	Logs(ctx context.Context, organizationID, campaignID string) ([]DeliveryLog, error)
	// FailedContactIDs returns the distinct contacts whose attempt is FAILED.
	FailedContactIDs(ctx context.Context, organizationID, campaignID string) ([]string, error)

	// ApplyDeliveryStatus updates every log row carrying the provider message id.
	// Zero rows is not an error.
	ApplyDeliveryStatus(ctx context.Context, u StatusUpdate, at time.Time) (int64, error)
}
