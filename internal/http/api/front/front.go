package front

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/onelinediary/server/internal/account"
	"github.com/onelinediary/server/internal/billing"
	"github.com/onelinediary/server/internal/config"
	"github.com/onelinediary/server/internal/garden"
	handlers "github.com/onelinediary/server/internal/http/api/front/handlers"
	"github.com/onelinediary/server/internal/identity"
	"github.com/onelinediary/server/internal/journal"
	"github.com/onelinediary/server/internal/ratelimit"
	"github.com/onelinediary/server/internal/security"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// Deps holds the services the front routes are built from.
type Deps struct {
	DB            *gorm.DB
	Config        config.AppConfig
	Accounts      *account.Service
	Resolver      *identity.Resolver
	Diaries       *journal.Store
	Garden        *garden.Store
	Subscriptions *billing.Service
	Payments      *billing.Payments
	Limiter       *ratelimit.Manager
}

// RegisterFrontRoutes registers the public and session-authenticated API.
func RegisterFrontRoutes(r *gin.Engine, deps Deps) {
	if r == nil || deps.DB == nil {
		return
	}

	r.Use(requestIDMiddleware())
	r.Use(corsMiddleware(deps.Config.Server.CORSOrigins))

	healthHandler := handlers.NewHealthHandler(deps.DB)
	r.GET("/healthz", healthHandler.Healthz)

	api := r.Group("/api")

	authLimit := ratelimit.Middleware(deps.Limiter, ratelimit.ScopeClientIP, ratelimit.ClientIP)
	secureCookie := strings.HasPrefix(deps.Config.Server.BaseURL, "https://")
	authHandler := handlers.NewAuthHandler(deps.Accounts, deps.Config.JWT, secureCookie)
	api.POST("/auth/signup", authLimit, authHandler.Signup)
	api.POST("/auth/login", authLimit, authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout)

	planHandler := handlers.NewPlanFrontHandler(deps.Config.Stripe.PriceID, deps.Config.Toss.ClientKey)
	api.GET("/plans", planHandler.List)

	paymentHandler := handlers.NewPaymentHandler(deps.Payments)
	api.POST("/payment/webhook",
		ratelimit.Middleware(deps.Limiter, ratelimit.ScopeWebhook, ratelimit.Fixed(billing.ProviderStripe)),
		paymentHandler.StripeWebhook)
	api.POST("/payment/iamport-webhook",
		ratelimit.Middleware(deps.Limiter, ratelimit.ScopeWebhook, ratelimit.Fixed(billing.ProviderIamport)),
		paymentHandler.IamportWebhook)
	api.POST("/payment/toss-webhook",
		ratelimit.Middleware(deps.Limiter, ratelimit.ScopeWebhook, ratelimit.Fixed(billing.ProviderToss)),
		paymentHandler.TossWebhook)

	authed := api.Group("")
	authed.Use(sessionMiddleware(deps.Config.JWT, deps.Resolver))

	diaryHandler := handlers.NewDiaryHandler(deps.Diaries, deps.Garden)
	authed.GET("/diary", diaryHandler.List)
	authed.POST("/diary", diaryHandler.Create)
	authed.PUT("/diary/:id", diaryHandler.Update)
	authed.DELETE("/diary/:id", diaryHandler.Delete)

	statsHandler := handlers.NewStatsHandler(deps.Diaries, deps.Subscriptions)
	authed.GET("/stats", statsHandler.Get)

	plantHandler := handlers.NewPlantHandler(deps.Garden)
	authed.GET("/plant", plantHandler.Get)
	authed.POST("/plant", plantHandler.Grow)

	achievementHandler := handlers.NewAchievementHandler(deps.Garden)
	authed.GET("/achievements", achievementHandler.List)
	authed.POST("/achievements", achievementHandler.Grant)

	subscriptionHandler := handlers.NewSubscriptionHandler(deps.Subscriptions)
	authed.GET("/subscription", subscriptionHandler.Get)
	authed.POST("/subscription/cancel", subscriptionHandler.Cancel)

	billHandler := handlers.NewBillFrontHandler(deps.DB)
	authed.GET("/subscription/history", billHandler.List)

	authed.POST("/payment/create-checkout-session", paymentHandler.CreateCheckoutSession)
	authed.POST("/payment/manual-subscription", paymentHandler.ManualSubscription)
	authed.POST("/payment/force-subscription", paymentHandler.ForceSubscription)
	authed.POST("/payment/refresh-subscription", paymentHandler.RefreshSubscription)

	userHandler := handlers.NewUserHandler(deps.Accounts, deps.Subscriptions)
	authed.GET("/user/profile", userHandler.GetProfile)
	authed.POST("/user/profile", userHandler.SaveProfile)
	authed.PUT("/user/profile", userHandler.SaveProfile)
	authed.GET("/user/theme", userHandler.GetTheme)
	authed.POST("/user/theme", userHandler.SaveTheme)
}

// sessionMiddleware validates the session token and stores the canonical user id.
func sessionMiddleware(jwtCfg config.JWTConfig, resolver *identity.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		claims, errJWT := security.ParseSessionToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		userID, errResolve := resolver.Resolve(c.Request.Context(), identity.Subject{
			ID:       claims.Subject,
			Email:    claims.Email,
			Name:     claims.Name,
			Provider: claims.Provider,
		})
		if errResolve != nil {
			if errors.Is(errResolve, identity.ErrUserNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": errResolve.Error()})
				return
			}
			log.WithError(errResolve).WithField("subject", claims.Subject).Error("session: resolve user failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.Set(handlers.ContextUserID, userID)
		c.Set(handlers.ContextUserEmail, identity.NormalizeEmail(claims.Email))
		c.Next()
	}
}

func sessionToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token != authHeader {
			return strings.TrimSpace(token)
		}
	}
	if cookie, errCookie := c.Cookie(handlers.SessionCookieName); errCookie == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("requestID", requestID)
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "Stripe-Signature", RequestIDHeader},
		ExposeHeaders: []string{RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
