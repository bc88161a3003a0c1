package handler

import (
	"github.com/labstack/echo/v4"
)

// getUserID extracts the authenticated user's ID from the echo
// context.  The JWT middleware stores the subject claim under
// "user_id"; depending on the token source it may arrive as several
// numeric types, so all are handled.
func getUserID(c echo.Context) (uint64, bool) {
	v := c.Get("user_id")
	switch id := v.(type) {
	case uint64:
		return id, true
	case int64:
		if id < 0 {
			return 0, false
		}
		return uint64(id), true
	case float64:
		if id < 0 {
			return 0, false
		}
		return uint64(id), true
	case int:
		if id < 0 {
			return 0, false
		}
		return uint64(id), true
	}
	return 0, false
}
