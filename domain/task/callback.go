package task

import (
	"fmt"
	"strconv"
	"strings"
)

// Inline button actions.
const (
	ButtonDone   = "done"
	ButtonDelete = "delete"
)

// CallbackData encodes an inline button payload such as "done:12".
func CallbackData(action string, id uint) string {
	return fmt.Sprintf("%s:%d", action, id)
}

// ParseCallback decodes a payload produced by CallbackData.
func ParseCallback(data string) (action string, id uint, err error) {
	action, raw, ok := strings.Cut(data, ":")
	if !ok || action == "" {
		return "", 0, fmt.Errorf("%w: malformed callback %q", ErrValidation, data)
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return "", 0, fmt.Errorf("%w: bad task id in callback %q", ErrValidation, data)
	}
	return action, uint(n), nil
}
