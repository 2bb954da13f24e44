package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	srverr "github.com/etlonline/prompt-competition/assignment-service/cmd/server/internal/error"
	servermiddleware "github.com/etlonline/prompt-competition/assignment-service/cmd/server/internal/middleware"
	"github.com/etlonline/prompt-competition/assignment-service/cmd/server/internal/models"
	"github.com/etlonline/prompt-competition/assignment-service/cmd/server/internal/ratelimit"
	"github.com/etlonline/prompt-competition/assignment-service/internal/config"
	"github.com/etlonline/prompt-competition/assignment-service/internal/fetch"
	"github.com/etlonline/prompt-competition/assignment-service/internal/logger"
	"github.com/etlonline/prompt-competition/assignment-service/internal/queue"
	"github.com/etlonline/prompt-competition/assignment-service/internal/upload"
)

const name = "github.com/etlonline/prompt-competition/assignment-service/server/routes/v1"

var tracer = otel.Tracer(name)

type Handler struct {
	DB *gorm.DB
	// If not nil fresh assignment sets are announced on the queue.
	Queuer             queue.Queuer
	config             *config.Config
	archiver           upload.Uploader
	recordingsUploader upload.Uploader
	fetcher            fetch.Fetcher
	recordingsFetcher  fetch.Fetcher
}

func NewRedisLimiter(
	redisHost string,
	limiterKey string,
	perMinute int64,
	failOpen bool,
	onlyMethod *string,
) middleware.RateLimiterConfig {
	l := logger.Logger
	var store middleware.RateLimiterStore

	redisAddr := redisHost + ":6379"
	l.Debug("Setting up rate limiter with Redis", "redis", redisAddr)
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	rdConf := &ratelimit.RedisLimiterConfig{
		PerMinute:   perMinute,
		RedisClient: rdb,
		LimiterKey:  limiterKey,
		FailOpen:    failOpen,
	}
	store = ratelimit.NewRedisLimitStore(*rdConf)

	skipper := middleware.DefaultSkipper
	if onlyMethod != nil {
		skipper = func(c echo.Context) bool {
			return c.Request().Method != *onlyMethod
		}
	}

	return middleware.RateLimiterConfig{
		Skipper: skipper,
		Store:   store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			auth, ok := c.Get("auth").(*models.Auth)
			if !ok {
				return "", srverr.ErrTypeAssertMismatch
			}
			return auth.ID.String(), nil
		},
		ErrorHandler: func(context echo.Context, _ error) error {
			return context.JSON(http.StatusForbidden, nil)
		},
		DenyHandler: func(context echo.Context, _ string, _ error) error {
			return context.JSON(http.StatusTooManyRequests, nil)
		},
	}
}

func NewHandler(
	db *gorm.DB,
	queuer queue.Queuer,
	cfg *config.Config,
	archiver upload.Uploader,
	recordingsUploader upload.Uploader,
	fetcher fetch.Fetcher,
	recordingsFetcher fetch.Fetcher,
) Handler {
	return Handler{
		DB:                 db,
		Queuer:             queuer,
		config:             cfg,
		archiver:           archiver,
		recordingsUploader: recordingsUploader,
		fetcher:            fetcher,
		recordingsFetcher:  recordingsFetcher,
	}
}

func (h *Handler) AddRoutes(e *echo.Echo, middlewareHandler *servermiddleware.Handler) {
	l := logger.Logger

	v1Group := e.Group("/v1", middleware.BasicAuth(middlewareHandler.BasicAuthValidator))

	if h.config.RateLimit != nil && h.config.RateLimit.GlobalPerMinute > 0 {
		v1Group.Use(
			middleware.RateLimiterWithConfig(
				NewRedisLimiter(
					h.config.RateLimit.RedisHost,
					"global",
					h.config.RateLimit.GlobalPerMinute,
					h.config.RateLimit.FailOpen,
					nil,
				),
			),
		)
	} else {
		l.Warn("not configured to have a global rate limit")
	}

	v1Group.GET("/ping/", h.Ping)

	managementGroup := v1Group.Group(
		"",
		servermiddleware.HasPermissions("auth", &models.Permissions{CompetitionManagement: true}),
	)

	managementGroup.POST("/competition/", h.CreateCompetition)
	managementGroup.POST(
		"/competition/:competition_id/participant/",
		h.CreateParticipant,
		servermiddleware.PopulateFromIDParam[models.Competition](
			middlewareHandler,
			"competition_id",
			"competition",
		),
	)
	managementGroup.POST("/judge/", h.CreateJudge)
	managementGroup.PATCH(
		"/judge/:judge_id/",
		h.PatchJudge,
		servermiddleware.PopulateFromIDParam[models.Judge](
			middlewareHandler,
			"judge_id",
			"judge",
		),
	)

	adminGroup := v1Group.Group(
		"/competition/:competition_id",
		servermiddleware.HasPermissions("auth", &models.Permissions{Admin: true}),
		servermiddleware.PopulateFromIDParam[models.Competition](
			middlewareHandler,
			"competition_id",
			"competition",
		),
	)
	adminGroup.POST("/distribute/", h.Distribute)
	adminGroup.GET("/assignments/", h.ListAssignments)

	v1Group.POST("/submission/", h.SubmitEntry)
	v1Group.GET(
		"/submission/:submission_id/content/",
		h.SubmissionContent,
		servermiddleware.HasPermissions("auth", &models.Permissions{Judge: true}),
		servermiddleware.PopulateFromIDParam[models.Submission](
			middlewareHandler,
			"submission_id",
			"submission",
		),
	)
	v1Group.GET(
		"/submission/:submission_id/recording/",
		h.SubmissionRecording,
		servermiddleware.HasPermissions("auth", &models.Permissions{Judge: true}),
		servermiddleware.PopulateFromIDParam[models.Submission](
			middlewareHandler,
			"submission_id",
			"submission",
		),
	)

	scoreGroup := v1Group.Group(
		"/submission/:submission_id/score",
		servermiddleware.HasPermissions("auth", &models.Permissions{Judge: true}),
		servermiddleware.PopulateFromIDParam[models.Submission](
			middlewareHandler,
			"submission_id",
			"submission",
		),
	)

	if h.config.RateLimit != nil && h.config.RateLimit.ScorePerMinute > 0 {
		post := http.MethodPost

		scoreGroup.Use(
			middleware.RateLimiterWithConfig(
				NewRedisLimiter(
					h.config.RateLimit.RedisHost,
					"score",
					h.config.RateLimit.ScorePerMinute,
					h.config.RateLimit.FailOpen,
					&post,
				),
			),
		)
	} else {
		l.Warn("not configured to have a score rate limit")
	}

	scoreGroup.POST("/", h.SubmitScore)

	v1Group.POST(
		"/participant/:participant_id/lock/",
		h.LockParticipant,
		servermiddleware.HasPermissions("auth", &models.Permissions{Judge: true}),
		servermiddleware.PopulateFromIDParam[models.Participant](
			middlewareHandler,
			"participant_id",
			"participant",
		),
	)
}
