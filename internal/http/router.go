package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agrimarket/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	jwtServ *service.JWTService,
	authH *AuthHandler,
	profileH *ProfileHandler,
	chatH *ChatHandler,
	weatherH *WeatherHandler,
	marketH *MarketHandler,
	farmH *FarmHandler,
	marketplaceH *MarketplaceHandler,
	agentH *AgentHandler,
) *gin.Engine {
	r := gin.New()

	r.Use(zapLoggerMiddleware(logger), gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := r.Group("/auth")
	auth.POST("/signup", authH.SignUp)
	auth.POST("/signin", authH.SignIn)
	auth.POST("/refresh", authH.Refresh)
	auth.POST("/signout", authH.SignOut)
	auth.POST("/otp/request", authH.RequestOTP)
	auth.POST("/otp/verify", authH.VerifyOTP)

	authed := r.Group("/")
	authed.Use(JWTAuthMiddleware(jwtServ))

	authed.GET("/profile", profileH.GetProfile)

	authed.GET("/conversations", chatH.ListConversations)
	authed.POST("/conversations", chatH.CreateConversation)
	authed.GET("/conversations/:id/messages", chatH.ListMessages)
	authed.POST("/conversations/:id/messages", chatH.SendMessage)
	authed.POST("/conversations/:id/attachments", chatH.UploadAttachment)
	authed.POST("/conversations/:id/cancel", chatH.CancelStream)
	authed.GET("/conversations/:id/events", chatH.StreamEvents)

	authed.GET("/weather", weatherH.GetWeather)
	authed.GET("/weather/forecast", weatherH.GetForecast)

	authed.GET("/market/prices", marketH.GetPrices)

	authed.GET("/farms", farmH.ListFarms)
	authed.POST("/farms", farmH.CreateFarm)
	authed.DELETE("/farms/:id", farmH.DeleteFarm)
	authed.GET("/farms/stats", farmH.GetFarmStats)

	authed.GET("/products", marketplaceH.ListProducts)
	authed.GET("/products/:id", marketplaceH.GetProduct)
	authed.GET("/cart", marketplaceH.GetCart)
	authed.POST("/cart/items", marketplaceH.AddCartItem)
	authed.DELETE("/cart/items/:productID", marketplaceH.RemoveCartItem)

	authed.GET("/agent/stats", agentH.GetStats)

	return r
}

// zapLoggerMiddleware registra cada request con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
