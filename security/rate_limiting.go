package security

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"album-rotation/utils"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

// SubmissionGuard rejects bot traffic and caps how many albums one
// contributor can submit per window. Without Redis only the user agent
// check runs.
type SubmissionGuard struct {
	redis  *redis.Client
	limit  int64
	window time.Duration
}

func NewSubmissionGuard(redisClient *redis.Client, limit int, window time.Duration) *SubmissionGuard {
	return &SubmissionGuard{
		redis:  redisClient,
		limit:  int64(limit),
		window: window,
	}
}

// Check is route middleware for the submit endpoint.
func (g *SubmissionGuard) Check(e *core.RequestEvent) error {
	if isSuspiciousUserAgent(e.Request.Header.Get("User-Agent")) {
		return apis.NewForbiddenError("Access denied", nil)
	}

	if g.redis == nil || g.limit <= 0 {
		return e.Next()
	}

	contributorID := utils.ContributorID(e.Request.Header.Get("X-Forwarded-For"), e.Request.RemoteAddr)
	key := fmt.Sprintf("ratelimit:submit:%s", contributorID)
	ctx := e.Request.Context()

	count, err := g.redis.Incr(ctx, key).Result()
	if err != nil {
		// fail open
		slog.Warn("Rate limit check failed", "error", err)
		return e.Next()
	}
	if count == 1 {
		g.redis.Expire(ctx, key, g.window)
	}
	if count > g.limit {
		return apis.NewApiError(http.StatusTooManyRequests, "Too many submissions. Please try again later.", nil)
	}

	return e.Next()
}

func isSuspiciousUserAgent(ua string) bool {
	suspicious := []string{"bot", "crawler", "spider", "scraper"}
	for _, pattern := range suspicious {
		if strings.Contains(strings.ToLower(ua), pattern) {
			return true
		}
	}
	return false
}
