package rest

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	SessionCookieName = "session_id"
	RequestIDHeader   = "X-Request-Id"

	sessionKey = "sessionID"
)

// limiterIdleTTL is how long a client's limiter survives without requests.
const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type limiterStore struct {
	mu        sync.Mutex
	limiters  map[string]*clientLimiter
	rps       int
	burst     int
	now       func() time.Time
	lastPrune time.Time
}

func newLimiterStore(rps, burst int) *limiterStore {
	if rps <= 0 {
		rps = 1
	}

	if burst <= 0 {
		burst = 1
	}

	return &limiterStore{
		limiters:  make(map[string]*clientLimiter),
		rps:       rps,
		burst:     burst,
		now:       time.Now,
		lastPrune: time.Now(),
	}
}

// get returns the limiter for a client key, creating it on first use.
func (that *limiterStore) get(key string) *rate.Limiter {
	that.mu.Lock()
	defer that.mu.Unlock()

	now := that.now()
	that.prune(now)

	if entry, ok := that.limiters[key]; ok {
		entry.lastSeen = now
		return entry.limiter
	}

	limiter := rate.NewLimiter(rate.Every(time.Second/time.Duration(that.rps)), that.burst)
	that.limiters[key] = &clientLimiter{limiter: limiter, lastSeen: now}

	return limiter
}

// prune forgets clients idle for longer than limiterIdleTTL. Callers hold mu.
func (that *limiterStore) prune(now time.Time) {
	if now.Sub(that.lastPrune) < limiterIdleTTL {
		return
	}

	that.lastPrune = now

	for key, entry := range that.limiters {
		if now.Sub(entry.lastSeen) >= limiterIdleTTL {
			delete(that.limiters, key)
		}
	}
}

func (that *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !that.limiters.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{Error: "too many requests, please slow down"})
			return
		}

		c.Next()
	}
}

func (that *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Header(RequestIDHeader, requestID)
		c.Next()

		that.logger.Debug("request served",
			"requestID", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
		)
	}
}

// sessionMiddleware - every browser gets its own game, keyed by a cookie.
func (that *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(SessionCookieName)
		if err != nil || uuid.Validate(sessionID) != nil {
			sessionID = uuid.NewString()
		}

		// refreshed on every request, like the stored game
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookieName, sessionID, int(that.options.SessionTTL.Seconds()), "/", "", that.options.Production, true)

		c.Set(sessionKey, sessionID)
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}
