package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"workouttribe/auth"
	"workouttribe/directory"
	"workouttribe/events"
	"workouttribe/matcher"
	"workouttribe/middlewares"
	"workouttribe/utils"
)

// Limits groups the throttling knobs. A zero LimiterConfig disables that limiter.
type Limits struct {
	Global      middlewares.LimiterConfig
	Auth        middlewares.LimiterConfig
	User        middlewares.LimiterConfig
	DailyQuota  int
	QuotaWindow time.Duration
}

// Deps is everything the handlers need. Redis and Invalidator may be nil,
// which turns off the quota and the response cache. CacheTTL <= 0 also
// turns the cache off.
type Deps struct {
	Users       *directory.Directory
	Matcher     *matcher.Matcher
	Events      *events.Store
	Guard       *auth.Guard
	Redis       *redis.Client
	Invalidator *utils.CacheInvalidator
	CacheTTL    time.Duration
	Limits      Limits
	Log         zerolog.Logger
}

type deps struct {
	Deps
}

// RegisterRoutes mounts the API on server. The returned func stops the
// limiter janitors.
func RegisterRoutes(server *gin.Engine, in Deps) (stop func()) {
	d := &deps{in}
	var limiters []*middlewares.RateLimiter
	limiter := func(conf middlewares.LimiterConfig, key middlewares.KeySelector) gin.HandlerFunc {
		if !conf.Enabled() {
			return func(c *gin.Context) { c.Next() }
		}
		rl := middlewares.NewRateLimiter(conf)
		limiters = append(limiters, rl)
		return rl.Middleware(key)
	}

	server.Use(limiter(in.Limits.Global, middlewares.ByClientIP("ip")))
	// Cached GETs still pay the per-address toll above.
	if in.Redis != nil && in.CacheTTL > 0 {
		server.Use(middlewares.ResponseCache(in.Redis, in.CacheTTL, in.Log))
	}

	server.GET("/health", d.health)

	authLimit := limiter(in.Limits.Auth, middlewares.ByClientIP("auth"))
	server.POST("/signup", authLimit, d.signup)
	server.POST("/login", authLimit, d.login)

	server.GET("/events", d.getEvents)
	server.GET("/events/:id", d.getEvent)

	private := server.Group("/")
	private.Use(middlewares.Authenticate(in.Guard))
	private.Use(limiter(in.Limits.User, middlewares.ByUser))
	if in.Redis != nil && in.Limits.DailyQuota > 0 {
		private.Use(middlewares.Quota(in.Redis, middlewares.QuotaRule{
			Limit:  in.Limits.DailyQuota,
			Window: in.Limits.QuotaWindow,
			KeyFn:  middlewares.UserQuotaKey,
		}))
	}

	private.GET("/users/profile", d.getProfile)
	private.PUT("/users/profile", d.updateProfile)
	private.GET("/users/nearby", d.nearby)

	private.POST("/events", d.createEvent)
	private.PUT("/events/:id", d.updateEvent)
	private.DELETE("/events/:id", d.deleteEvent)
	private.POST("/events/:id/join", d.joinEvent)
	private.POST("/events/:id/leave", d.leaveEvent)

	return func() {
		for _, rl := range limiters {
			rl.Close()
		}
	}
}

func (d *deps) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
