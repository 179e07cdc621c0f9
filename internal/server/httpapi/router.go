package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/glowup/internal/logging"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RouterConfig collects the router dependencies.
type RouterConfig struct {
	ServiceName string
	Sessions    Sessions
	Verifier    TokenVerifier
	Logger      logging.Logger
	Recorder    Recorder
}

// NewRouter builds the gin engine. Middleware order matters: the error
// handler sits outside recovery so recovered panics are rendered too.
func NewRouter(cfg RouterConfig) *gin.Engine {
	rec := cfg.Recorder
	if rec == nil {
		rec = nopRecorder{}
	}

	r := gin.New()
	r.Use(RequestLogger(cfg.Logger))
	r.Use(Metrics(rec))
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(ErrorHandler(cfg.Logger))
	r.Use(Recovery())

	h := NewAuthHandler(cfg.Sessions, rec)
	gate := NewGate(cfg.Verifier)

	g := r.Group("/auth")
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/refresh", h.Refresh)
	g.POST("/logout", h.Logout)
	g.POST("/logout-all", gate.Authenticate, h.LogoutAll)
	g.GET("/me", gate.Authenticate, h.Me)

	r.NoRoute(func(c *gin.Context) {
		_ = c.Error(&apiError{status: http.StatusNotFound, message: "Route not found"})
	})

	return r
}
