package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"learnstack/config"
	"learnstack/handler"
	"learnstack/logger"
	"learnstack/middleware"
	"learnstack/model"
	"learnstack/repository"
	"learnstack/seed"
	"learnstack/services"
	"learnstack/usecase"
	"learnstack/utils"
)

// Largest accepted request body; code submissions dominate.
const maxBodyBytes = 256 << 10

func init() {
	if err := godotenv.Load(); err != nil && os.Getenv("GO_ENV") != "test" {
		log.Printf("No .env file loaded: %v", err)
	}
}

// app holds the wired services the router needs.
type app struct {
	cfg    config.Config
	log    *logger.Logger
	tokens *services.TokenService

	engine      *usecase.ProgressEngine
	admin       *usecase.AdminService
	leaderboard *usecase.LeaderboardService
	tests       *usecase.TestAttemptService
	problems    *usecase.DailyProblemService
	throttle    *services.EvalThrottle
	subjects    handler.SubjectSource

	mongo *mongo.Client
	redis *redis.Client
}

func setupRouter(a *app) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(a.log))
	router.Use(middleware.RequestTracingMiddleware(a.log))
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.CORSMiddleware(a.cfg.CORSOrigins))
	router.Use(middleware.RequestSizeLimiter(maxBodyBytes))

	health := handler.NewHealthHandler(a.mongo, a.redis)
	router.GET("/healthz", health.Healthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	registration := handler.NewRegistrationHandler(a.engine, a.log)
	progress := handler.NewProgressHandler(a.engine, a.leaderboard, a.log)
	topics := handler.NewTopicsHandler(a.engine, a.subjects, a.log)
	achievements := handler.NewAchievementsHandler(a.engine, a.throttle, a.log)
	boards := handler.NewLeaderboardHandler(a.engine, a.leaderboard, a.log)
	admin := handler.NewAdminHandler(a.engine, a.admin, a.leaderboard, a.log)
	assessments := handler.NewAssessmentHandler(a.tests, a.problems, a.log)

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(a.tokens))
	{
		protected.POST("/auth/register-profile", registration.RegisterProfile)

		p := protected.Group("/progress")
		{
			p.GET("/dashboard", progress.Dashboard)
			p.GET("/me", progress.Me)
			p.POST("/activity", progress.RecordActivity)
			p.POST("/update", progress.UpdateProgress)
			p.GET("/check-access/:topicId", progress.CheckAccess)
			p.GET("/check-access/:topicId/:algorithmId", progress.CheckAccess)
			p.GET("/subject-access/:subject", progress.CheckSubjectAccess)
		}

		protected.GET("/subjects", topics.ListSubjects)

		t := protected.Group("/topics")
		t.Use(middleware.CacheControlMiddleware(30 * time.Second))
		{
			t.GET("", topics.ListTopics)
			t.GET("/:id", topics.GetTopic)
		}

		ach := protected.Group("/achievements")
		{
			ach.GET("", achievements.ListAchievements)
			ach.GET("/user", achievements.UserAchievements)
			ach.POST("/check", achievements.CheckAchievements)
		}

		lb := protected.Group("/leaderboard")
		{
			lb.GET("", boards.GetLeaderboard)
			lb.GET("/my-rank", boards.MyRank)
			lb.POST("/update", boards.UpdatePosition)
		}

		test := protected.Group("/test")
		{
			test.POST("/start/:testId", assessments.StartTest)
			test.POST("/violation", assessments.RecordViolation)
			test.POST("/complete", assessments.CompleteTest)
		}

		dp := protected.Group("/daily-problem")
		{
			dp.GET("/active/:subject", assessments.ActiveProblem)
			dp.GET("/details/:problemId", assessments.ProblemDetails)
			dp.POST("/submit", assessments.SubmitCode)
		}

		adm := protected.Group("/admin")
		adm.Use(middleware.RequireRole(model.RoleAdmin))
		{
			adm.POST("/locks", admin.SetLock)
			adm.GET("/users/:userId/topic-statuses", admin.TopicStatuses)
			adm.POST("/leaderboard/regenerate", admin.RegenerateLeaderboards)
		}

		mentor := protected.Group("/mentor")
		mentor.Use(middleware.RequireRole(model.RoleMentor))
		{
			mentor.POST("/attempts/unlock", assessments.UnlockAttempt)
		}
	}

	return router
}

func main() {
	cfg, invalid := config.Load()

	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLog.Sync()

	for _, name := range invalid {
		appLog.Warn("ignoring unparsable setting, using default", "var", name)
	}
	if missing := cfg.Missing(); len(missing) > 0 {
		appLog.Fatal("required environment variables are not set", "vars", missing)
	}
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	utils.InitValidator()
	utils.RegisterSystemMetrics()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	mongoClient, err := utils.NewMongoClient(ctx, cfg.Database)
	if err != nil {
		appLog.Fatal("failed to connect to MongoDB", "error", err)
	}
	db := mongoClient.Database(cfg.Database.DatabaseName)
	if err := repository.SetupIndexes(ctx, db); err != nil {
		appLog.Fatal("failed to create indexes", "error", err)
	}

	// Redis is optional: without it the catalog cache and throttle stay
	// process-local.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		if redisClient, err = services.NewRedisClient(cfg.RedisURL); err != nil {
			appLog.Warn("redis unavailable, using in-process cache", "error", err)
			redisClient = nil
		}
	}

	users := repository.GetUserRepo(db)
	topicRepo := repository.GetTopicRepo(db)
	templates := repository.GetAchievementRepo(db)
	boards := repository.GetLeaderboardRepo(db)
	assessmentRepo := repository.GetAssessmentRepo(db)

	if err := applySeed(ctx, cfg, topicRepo, templates, assessmentRepo, appLog); err != nil {
		appLog.Fatal("failed to seed data", "error", err)
	}

	catalog := services.NewCatalogCache(topicRepo, redisClient, cfg.CatalogCacheTTL, appLog)
	engine := usecase.NewProgressEngine(catalog, users, templates, appLog, cfg.MaxWriteRetries)

	a := &app{
		cfg:         cfg,
		log:         appLog,
		tokens:      services.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL),
		engine:      engine,
		admin:       usecase.NewAdminService(engine, topicRepo, users, cfg.AdminBatchConcurrency),
		leaderboard: usecase.NewLeaderboardService(users, boards, appLog, cfg.LeaderboardSize, cfg.MaxWriteRetries),
		tests:       usecase.NewTestAttemptService(engine, assessmentRepo, services.PasswordHasher{}),
		problems:    usecase.NewDailyProblemService(engine, assessmentRepo, services.NewCodeRunnerClient(cfg.CodeRunner)),
		throttle:    services.NewEvalThrottle(redisClient, cfg.AchievementEvalInterval),
		subjects:    topicRepo,
		mongo:       mongoClient,
		redis:       redisClient,
	}

	runServer(setupRouter(a), cfg.Port, appLog, func(ctx context.Context) {
		if redisClient != nil {
			redisClient.Close()
		}
		if err := mongoClient.Disconnect(ctx); err != nil {
			appLog.Warn("mongo disconnect failed", "error", err)
		}
	})
}

func applySeed(ctx context.Context, cfg config.Config, catalog seed.CatalogStore, templates seed.TemplateStore, assessments seed.AssessmentStore, log *logger.Logger) error {
	var (
		f   *seed.File
		err error
	)
	switch {
	case cfg.SeedFile != "":
		f, err = seed.LoadFile(cfg.SeedFile)
	case cfg.SeedDefault:
		f, err = seed.Default()
	default:
		return nil
	}
	if err != nil {
		return err
	}
	_, err = seed.Apply(ctx, f, seed.Stores{
		Catalog:      catalog,
		Templates:    templates,
		Assessments:  assessments,
		HashPassword: services.HashPassword,
	}, log)
	return err
}
