package reminder

import (
	"fmt"
	"time"

	"github.com/example/task-reminder-bot/domain/timezone"
)

// Compose renders the notification text for a fired threshold.
func Compose(th Threshold, id uint, description string, due time.Time, zone string) string {
	local := timezone.Format(&due, timezone.Resolve(zone))
	zone = timezone.Name(zone)

	if th.Terminal {
		return fmt.Sprintf("🔔 DUE %s!\nID: %d\nDesc: %s\nDue: %s (%s)", th.Label, id, description, local, zone)
	}
	return fmt.Sprintf("⏳ Reminder: Due %s!\nID: %d\nDesc: %s\nDue: %s (%s)", th.Label, id, description, local, zone)
}
