package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RateLimit throttles requests per client address. Only the methods listed are counted;
// with none listed every request counts. Rejections surface as 429 errors.
func RateLimit(identifier string, max int, window time.Duration, methods ...string) fiber.Handler {
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	counted := make(map[string]struct{}, len(methods))
	for _, method := range methods {
		counted[method] = struct{}{}
	}

	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		Next: func(c *fiber.Ctx) bool {
			if len(counted) == 0 {
				return false
			}
			_, ok := counted[c.Method()]
			return !ok
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return fmt.Sprintf("%s:%s", identifier, c.IP())
		},
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many attempts. Please wait a minute and try again.")
		},
	})
}
