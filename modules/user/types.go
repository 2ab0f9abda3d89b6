package user

import "context"

// Preferences is the slice of the task repository this module needs.
type Preferences interface {
	UserTimezone(ctx context.Context, ownerID string) (string, error)
	SetUserTimezone(ctx context.Context, ownerID, zone string) error
}

// GetTimezoneRequest is the request for reading an owner's zone.
type GetTimezoneRequest struct {
	OwnerID string `json:"owner_id"`
}

// GetTimezoneResponse carries the zone name in effect for the owner.
type GetTimezoneResponse struct {
	Timezone string `json:"timezone"`
}

// SetTimezoneRequest is the request for changing an owner's zone.
type SetTimezoneRequest struct {
	OwnerID  string `json:"owner_id"`
	Timezone string `json:"timezone"`
}

// SetTimezoneResponse reports the outcome of a zone change.
type SetTimezoneResponse struct {
	Saved    bool   `json:"saved"`
	Invalid  bool   `json:"invalid"`
	Timezone string `json:"timezone,omitempty"`
}
