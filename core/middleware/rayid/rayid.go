// Package rayid assigns a unique request id to every incoming request so
// logs of one API-triggered sync run can be correlated end to end.
package rayid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// HeaderName is the response header carrying the request id.
const HeaderName = "X-Ray-Id"

// New returns a middleware that stores a fresh uuid under the "ray_id" local
// and echoes it in the response header. An id supplied by the caller in the
// request header is reused.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := c.Get(HeaderName)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Locals("ray_id", rid)
		c.Set(HeaderName, rid)
		return c.Next()
	}
}
