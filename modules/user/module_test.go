package user

import (
	"context"
	"errors"
	"testing"

	"github.com/example/task-reminder-bot/domain/task"
	"github.com/example/task-reminder-bot/domain/timezone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePreferences struct {
	zones   map[string]string
	loadErr error
	saveErr error
}

func (f *fakePreferences) UserTimezone(_ context.Context, ownerID string) (string, error) {
	if f.loadErr != nil {
		return "", f.loadErr
	}
	if z, ok := f.zones[ownerID]; ok {
		return z, nil
	}
	return timezone.Reference, nil
}

func (f *fakePreferences) SetUserTimezone(_ context.Context, ownerID, zone string) error {
	if err := timezone.Validate(zone); err != nil {
		return err
	}
	if f.saveErr != nil {
		return f.saveErr
	}
	f.zones[ownerID] = zone
	return nil
}

func TestUserModule_GetTimezone(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		prefs *fakePreferences
		want  string
	}{
		{name: "stored zone", prefs: &fakePreferences{zones: map[string]string{"u1": "Asia/Tashkent"}}, want: "Asia/Tashkent"},
		{name: "never set", prefs: &fakePreferences{zones: map[string]string{}}, want: "UTC"},
		{name: "corrupt stored zone", prefs: &fakePreferences{zones: map[string]string{"u1": "Not/AZone"}}, want: "UTC"},
		{name: "storage failure", prefs: &fakePreferences{loadErr: task.ErrStorage}, want: "UTC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModule(tt.prefs)
			resp, err := m.getTimezone(ctx, GetTimezoneRequest{OwnerID: "u1"}, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.Timezone)
		})
	}
}

func TestUserModule_SetTimezone(t *testing.T) {
	ctx := context.Background()

	t.Run("valid zone", func(t *testing.T) {
		prefs := &fakePreferences{zones: map[string]string{}}
		resp, err := NewModule(prefs).setTimezone(ctx, SetTimezoneRequest{OwnerID: "u1", Timezone: "Europe/Paris"}, nil)
		require.NoError(t, err)
		assert.True(t, resp.Saved)
		assert.False(t, resp.Invalid)
		assert.Equal(t, "Europe/Paris", prefs.zones["u1"])
	})

	t.Run("invalid zone", func(t *testing.T) {
		prefs := &fakePreferences{zones: map[string]string{}}
		resp, err := NewModule(prefs).setTimezone(ctx, SetTimezoneRequest{OwnerID: "u1", Timezone: "Moon/Base"}, nil)
		require.NoError(t, err)
		assert.True(t, resp.Invalid)
		assert.Empty(t, prefs.zones)
	})

	t.Run("storage failure", func(t *testing.T) {
		prefs := &fakePreferences{zones: map[string]string{}, saveErr: errors.New("disk full")}
		resp, err := NewModule(prefs).setTimezone(ctx, SetTimezoneRequest{OwnerID: "u1", Timezone: "Europe/Paris"}, nil)
		require.NoError(t, err)
		assert.False(t, resp.Saved)
		assert.False(t, resp.Invalid)
	})
}

func TestUserModule_StartRequiresPreferences(t *testing.T) {
	assert.Error(t, NewModule(nil).Start(context.Background()))
}
