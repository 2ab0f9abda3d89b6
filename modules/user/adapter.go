package user

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/task-reminder-bot/domain/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// UserPort defines the timezone preference operations used by other modules.
type UserPort interface {
	// Timezone returns the zone name in effect for the owner. Missing or
	// invalid preferences resolve to UTC.
	Timezone(ctx context.Context, ownerID string) (string, error)
	SetTimezone(ctx context.Context, ownerID, zone string) error
}

// userAdapter wraps ServiceContainer for type-safe cross-module communication.
type userAdapter struct {
	container mono.ServiceContainer
}

// NewUserAdapter creates a new adapter for user services.
// container is the ServiceContainer from the user module received via SetDependencyServiceContainer.
func NewUserAdapter(container mono.ServiceContainer) UserPort {
	if container == nil {
		panic("user adapter requires non-nil ServiceContainer")
	}
	return &userAdapter{container: container}
}

// Timezone reads the owner's zone via the get-timezone service.
func (a *userAdapter) Timezone(ctx context.Context, ownerID string) (string, error) {
	req := GetTimezoneRequest{OwnerID: ownerID}
	var resp GetTimezoneResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"get-timezone",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return "", fmt.Errorf("get-timezone service call failed: %w", err)
	}
	return resp.Timezone, nil
}

// SetTimezone stores the owner's zone via the set-timezone service.
func (a *userAdapter) SetTimezone(ctx context.Context, ownerID, zone string) error {
	req := SetTimezoneRequest{OwnerID: ownerID, Timezone: zone}
	var resp SetTimezoneResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"set-timezone",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return fmt.Errorf("%w: set-timezone service call failed: %w", task.ErrStorage, err)
	}

	if resp.Invalid {
		return fmt.Errorf("%w: %q", task.ErrInvalidTimezone, zone)
	}
	if !resp.Saved {
		return fmt.Errorf("%w: timezone not saved for %s", task.ErrStorage, ownerID)
	}
	return nil
}
