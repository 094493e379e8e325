package server

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"petguide-backend/internal/analysis"
	googleauth "petguide-backend/internal/auth"
	"petguide-backend/internal/chat"
	"petguide-backend/internal/gateway"
	"petguide-backend/internal/gateway/googleai"
	openaigw "petguide-backend/internal/gateway/openai"
	"petguide-backend/internal/services/health"
	"petguide-backend/internal/shared/config"
	"petguide-backend/internal/shared/server/middleware"
	"petguide-backend/internal/shared/server/respond"
)

// BuildGateway constructs the AI gateway client selected by configuration.
func BuildGateway(ctx context.Context, cfg config.Config) (gateway.Client, error) {
	switch cfg.LLMProvider {
	case "openai":
		return openaigw.NewClient(strings.TrimSpace(os.Getenv("OPENAI_API_KEY")), cfg.VisionModel, cfg.GatewayTimeout)
	default:
		return googleai.New(ctx, cfg.VisionModel, cfg.ChatModel, cfg.GatewayTimeout)
	}
}

// NewRouter constructs the Gin engine with middleware and routes
// registered. The gateway client is injected so tests can substitute a
// stub; all session state lives in the stores built here and is threaded
// into the services explicitly.
func NewRouter(cfg config.Config, gw gateway.Client) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.Auth(),
	)

	history := analysis.NewHistory()
	analysisSvc := &analysis.Service{Gateway: gw, History: history}
	analysisHandler := analysis.NewHandler(analysisSvc)
	chatSvc := chat.NewService(gw, history)
	chatHandler := chat.NewHandler(chatSvc)
	healthSvc := health.NewService(cfg.LLMProvider, cfg.VisionModel)
	googleAuthSvc := googleauth.NewGoogleService(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL, cfg.UIRedirectURL)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, healthSvc.Status())
	})
	googleAuthSvc.RegisterRoutes(api)
	analysisHandler.RegisterRoutes(api)
	chatHandler.RegisterRoutes(api)

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
