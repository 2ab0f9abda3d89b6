package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/example/task-reminder-bot/domain/task"
	"github.com/example/task-reminder-bot/domain/timezone"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// UserModule provides per-user timezone preference services.
type UserModule struct {
	prefs Preferences
}

// Compile-time interface checks.
var _ mono.Module = (*UserModule)(nil)
var _ mono.ServiceProviderModule = (*UserModule)(nil)

// NewModule creates a new UserModule.
func NewModule(prefs Preferences) *UserModule {
	return &UserModule{prefs: prefs}
}

// Name returns the module name.
func (m *UserModule) Name() string {
	return "user"
}

// RegisterServices registers request-reply services in the service container.
func (m *UserModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		"get-timezone",
		json.Unmarshal,
		json.Marshal,
		m.getTimezone,
	); err != nil {
		return fmt.Errorf("failed to register get-timezone service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"set-timezone",
		json.Unmarshal,
		json.Marshal,
		m.setTimezone,
	); err != nil {
		return fmt.Errorf("failed to register set-timezone service: %w", err)
	}

	log.Printf("[user] Registered services: get-timezone, set-timezone")
	return nil
}

// getTimezone handles the get-timezone service request.
func (m *UserModule) getTimezone(ctx context.Context, req GetTimezoneRequest, _ *mono.Msg) (GetTimezoneResponse, error) {
	return GetTimezoneResponse{Timezone: m.lookup(ctx, req.OwnerID)}, nil
}

// lookup never fails: storage errors and bad stored values fall back to UTC.
func (m *UserModule) lookup(ctx context.Context, ownerID string) string {
	stored, err := m.prefs.UserTimezone(ctx, ownerID)
	if err != nil {
		log.Printf("[user] Warning: failed to load timezone for %s: %v", ownerID, err)
		return timezone.Reference
	}
	if err := timezone.Validate(stored); err != nil {
		log.Printf("[user] Warning: owner %s has %v stored, using %s", ownerID, err, timezone.Reference)
		return timezone.Reference
	}
	return timezone.Name(stored)
}

// setTimezone handles the set-timezone service request.
func (m *UserModule) setTimezone(ctx context.Context, req SetTimezoneRequest, _ *mono.Msg) (SetTimezoneResponse, error) {
	if err := m.prefs.SetUserTimezone(ctx, req.OwnerID, req.Timezone); err != nil {
		if errors.Is(err, task.ErrInvalidTimezone) {
			return SetTimezoneResponse{Invalid: true}, nil
		}
		log.Printf("[user] Error setting timezone for %s: %v", req.OwnerID, err)
		return SetTimezoneResponse{}, nil
	}

	log.Printf("[user] Set timezone for %s to %q", req.OwnerID, req.Timezone)
	return SetTimezoneResponse{Saved: true, Timezone: timezone.Name(req.Timezone)}, nil
}

// Start initializes the module.
func (m *UserModule) Start(_ context.Context) error {
	if m.prefs == nil {
		return fmt.Errorf("preferences store not set")
	}
	log.Println("[user] Module started")
	return nil
}

// Stop shuts down the module.
func (m *UserModule) Stop(_ context.Context) error {
	log.Println("[user] Module stopped")
	return nil
}
