package routes

import (
	"log/slog"
	"net/http"
	"time"

	adminapi "taskboard/internal/api/admin"
	authapi "taskboard/internal/api/auth"
	"taskboard/internal/api/billing"
	"taskboard/internal/api/dashboard"
	notificationsapi "taskboard/internal/api/notifications"
	"taskboard/internal/api/plans"
	projectsapi "taskboard/internal/api/projects"
	"taskboard/internal/api/slackbot"
	stripewebhooks "taskboard/internal/api/stripewebhook"
	tasksapi "taskboard/internal/api/tasks"
	"taskboard/internal/api/users"
	"taskboard/internal/app/http/middleware"
	"taskboard/internal/auth"
	domainusers "taskboard/internal/domain/users"
	"taskboard/internal/payments"
	"taskboard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Deps struct {
	Repos    *repository.Repositories
	Issuer   *auth.Issuer
	Payments *payments.Service
	Logger   *slog.Logger
	Gatherer prometheus.Gatherer
	Now      func() time.Time

	// Google is nil when Google sign-in is not configured.
	Google *authapi.GoogleConfig
	// SlackSigningSecret empty leaves the slash-command route unregistered.
	SlackSigningSecret string
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	if d.Now == nil {
		d.Now = time.Now
	}
	authH := authapi.NewHandler(d.Repos.Users, d.Issuer, d.Logger, d.Google)
	usersH := users.NewHandler(d.Repos.Users, d.Now)
	tasksH := tasksapi.NewHandler(d.Repos.Tasks, d.Repos.Projects, d.Logger)
	projectsH := projectsapi.NewHandler(d.Repos.Projects, d.Repos.Tasks, d.Logger)
	dashboardH := dashboard.NewHandler(d.Repos.Tasks, d.Repos.Projects, d.Now)
	notificationsH := notificationsapi.NewHandler(d.Repos.Notifications, d.Repos.Tasks, d.Now)
	billingH := billing.NewHandler(d.Payments)
	plansH := plans.NewHandler(d.Payments)
	webhookH := stripewebhooks.NewHandler(d.Payments, d.Logger)
	adminH := adminapi.NewHandler(d.Repos.Users, d.Repos.Transactions)

	// raw body: the signature covers the exact bytes
	r.POST("/webhook/stripe", webhookH.StripeWebhook)
	if d.SlackSigningSecret != "" {
		slackH := slackbot.NewHandler(slackbot.Options{
			SigningSecret: d.SlackSigningSecret,
			Users:         d.Repos.Users,
			Tasks:         d.Repos.Tasks,
			Projects:      d.Repos.Projects,
			Logger:        d.Logger,
			Now:           d.Now,
		})
		r.POST("/slack/commands", slackH.Command)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	public := r.Group("/")
	public.Use(middleware.SanitizeAndCleanInputMiddleware())

	public.POST("/register", authH.Register)
	public.POST("/login", authH.Login)
	public.GET("/plans", plansH.List)
	public.GET("/auth/google", authH.GoogleStart)
	public.GET("/auth/google/callback", authH.GoogleCallback)

	// Authenticated
	authed := r.Group("/")
	authed.Use(middleware.AuthMiddleware(d.Issuer), middleware.SanitizeAndCleanInputMiddleware())

	authed.GET("/me", usersH.GetCurrentUser)
	authed.PUT("/me/slack", usersH.LinkSlack)

	authed.POST("/tasks", tasksH.Create)
	authed.GET("/tasks", tasksH.List)
	authed.GET("/tasks/:id", tasksH.Get)
	authed.PUT("/tasks/:id", tasksH.Update)
	authed.DELETE("/tasks/:id", tasksH.Delete)

	authed.POST("/projects", projectsH.Create)
	authed.GET("/projects", projectsH.List)
	authed.GET("/projects/:id", projectsH.Get)
	authed.DELETE("/projects/:id", projectsH.Delete)

	authed.GET("/dashboard/stats", dashboardH.Stats)

	authed.POST("/notifications", notificationsH.Create)
	authed.GET("/notifications", notificationsH.List)
	authed.GET("/notifications/due", notificationsH.Due)
	authed.PUT("/notifications/:id/read", notificationsH.MarkRead)

	authed.POST("/checkout", billingH.CreateCheckoutSession)
	authed.GET("/checkout/status/:session_id", billingH.CheckoutStatus)
	authed.GET("/payments", billingH.GetPaymentHistory)

	// Premium users
	premium := authed.Group("/")
	premium.Use(middleware.RequirePremium(d.Repos.Users, d.Now))
	premium.POST("/tasks/:id/occurrences", tasksH.ExpandOccurrences)

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(d.Issuer), middleware.RequireRole(domainusers.RoleAdmin))
	admin.GET("/payments", adminH.ListAllPayments)
	admin.GET("/stats", adminH.GetAdminStats)
}
