package handler

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"puantajx-functions/pkg/accounts"
	"puantajx-functions/pkg/config"
	"puantajx-functions/pkg/database"
	"puantajx-functions/pkg/digest"
	"puantajx-functions/pkg/handlers"
	"puantajx-functions/pkg/identity"
	"puantajx-functions/pkg/logger"
	"puantajx-functions/pkg/mail"
	customMiddleware "puantajx-functions/pkg/middleware"
	"puantajx-functions/pkg/utils"
)

// maxBodyBytes caps request bodies; every function takes a small JSON object.
const maxBodyBytes = 1 << 20

// Dependencies are the external systems the functions talk to.
type Dependencies struct {
	Records database.RecordStore
	Users   identity.Store
	Mailer  mail.Sender
	// Identities may be nil when SUPABASE_DB_URL is not configured.
	Identities database.IdentityLookup
}

var (
	router   http.Handler
	routerMu sync.Mutex
	// buildRouter is replaced in tests.
	buildRouter = build
)

// Handler 是Vercel函数的入口点
// 路由器构建成功后缓存，之后的热调用复用；构建失败时下次请求重试
func Handler(w http.ResponseWriter, r *http.Request) {
	h, err := cachedRouter(r.Context())
	if err != nil {
		utils.WriteErrorResponse(w, "Configuration error: "+err.Error())
		return
	}
	h.ServeHTTP(w, r)
}

func cachedRouter(ctx context.Context) (http.Handler, error) {
	routerMu.Lock()
	defer routerMu.Unlock()

	if router != nil {
		return router, nil
	}
	h, err := buildRouter(ctx)
	if err != nil {
		return nil, err
	}
	router = h
	return router, nil
}

// build 加载配置并连接外部服务
func build(ctx context.Context) (http.Handler, error) {
	cfg, err := config.GetCached()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logger.Setup(cfg.IsDevelopment() || cfg.Debug)
	ctx = log.WithContext(ctx)

	deps, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewRouter(cfg, log, deps), nil
}

// Connect builds the production dependencies from cfg.
func Connect(ctx context.Context, cfg *config.Config) (Dependencies, error) {
	records, err := database.GetDatabase(ctx, database.DatabaseConfig{
		PostgresDSN: cfg.PostgresDSN,
		SupabaseURL: cfg.SupabaseURL,
		SupabaseKey: cfg.SupabaseServiceKey,
	})
	if err != nil {
		return Dependencies{}, err
	}

	deps := Dependencies{
		Records: records,
		Users:   identity.NewSupabaseClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, utils.NewJWTService(cfg.SupabaseJWTSecret)),
		Mailer:  mail.NewResendClient(cfg.ResendBaseURL, cfg.ResendAPIKey),
	}

	// 身份查询需要直连数据库，未配置时相关函数返回错误
	if cfg.SupabaseDBURL != "" {
		lookup, err := database.NewIdentityLookup(ctx, cfg.SupabaseDBURL)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("identity lookup unavailable")
		} else {
			deps.Identities = lookup
		}
	}

	return deps, nil
}

// NewRouter wires every function under /functions/v1.
func NewRouter(cfg *config.Config, log zerolog.Logger, deps Dependencies) http.Handler {
	router := chi.NewRouter()

	setupMiddleware(router, cfg, log)
	setupRoutes(router, cfg, deps)

	return router
}

// setupMiddleware 设置全局中间件
func setupMiddleware(router *chi.Mux, cfg *config.Config, log zerolog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	// Normalize path and restore scheme/host before logging and routing
	router.Use(customMiddleware.Normalize())
	router.Use(customMiddleware.Logger(log))
	router.Use(customMiddleware.Recovery(cfg))

	// CORS中间件
	router.Use(customMiddleware.CORS(cfg))
	router.Use(answerPreflight)

	// 超时中间件（Vercel函数有时间限制）
	router.Use(middleware.Timeout(cfg.RequestTimeout))
	router.Use(customMiddleware.MaxBodySize(maxBodyBytes))
}

// answerPreflight 在路由之前应答所有预检请求
func answerPreflight(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			handlers.Preflight(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// setupRoutes 设置所有函数路由
func setupRoutes(router *chi.Mux, cfg *config.Config, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler(cfg, deps.Records)
	verificationHandler := handlers.NewVerificationHandler(cfg, deps.Records, deps.Mailer)
	accountHandler := handlers.NewAccountHandler(cfg, accounts.NewDeleter(deps.Users, deps.Records))
	inviteHandler := handlers.NewInviteHandler(cfg, deps.Users)
	notificationHandler := handlers.NewNotificationHandler(cfg, deps.Mailer)
	summaryHandler := handlers.NewSummaryHandler(cfg, digest.NewSender(deps.Records, deps.Mailer, cfg.MailFrom, cfg.AppBaseURL))
	identityHandler := handlers.NewIdentityHandler(cfg, deps.Identities)

	// 健康检查端点
	router.Get("/", healthHandler.HealthCheck)

	router.Route("/functions/v1", func(r chi.Router) {
		// 邮件发送类函数按IP限流
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.RateLimitByIP(cfg.EmailRatePerMinute))

			r.Post("/send-verification", verificationHandler.SendVerification)
			r.Post("/invite-member", inviteHandler.InviteMember)
			r.Post("/send-notification", notificationHandler.SendNotification)
		})

		// 邮件中的验证链接
		r.Get("/send-verification", verificationHandler.ConfirmVerification)

		r.With(customMiddleware.RequireBearer).Post("/delete-account", accountHandler.DeleteAccount)

		r.Get("/send-monthly-summary", summaryHandler.SendMonthlySummary)
		r.Post("/send-monthly-summary", summaryHandler.SendMonthlySummary)

		r.Post("/check-google-user", identityHandler.CheckGoogleUser)
		r.Post("/check-user-exists", identityHandler.CheckUserExists)
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteErrorResponse(w, "Function not found: "+r.URL.Path)
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteErrorResponse(w, "Method not allowed: "+r.Method)
	})
}
