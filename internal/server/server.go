package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ginjaninja78/ciim-report-sync/internal/config"
	"github.com/ginjaninja78/ciim-report-sync/internal/logging"
)

// Server HTTP server
type Server struct {
	router  *gin.Engine
	handler *Handler
	addr    string
}

// NewServer builds the router for cfg. Requests run workflows against the
// filesystem under cfg.Root.
func NewServer(cfg *config.Config, log logging.Logger) (*Server, error) {
	if log == nil {
		log = logging.Discard()
	}
	if strings.EqualFold(cfg.Server.Mode, "release") {
		gin.SetMode(gin.ReleaseMode)
	} else if strings.EqualFold(cfg.Server.Mode, "test") {
		gin.SetMode(gin.TestMode)
	}

	h, err := NewHandler(cfg, log)
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLog(log))

	s := &Server{router: router, handler: h, addr: cfg.Server.Addr}
	api := s.router.Group("/api")
	{
		s.handler.RegisterRoutes(api)
	}
	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the server on addr, or the configured address when addr is
// empty.
func (s *Server) Run(addr string) error {
	if addr == "" {
		addr = s.addr
	}
	return s.router.Run(addr)
}

func requestLog(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.Info("%s %s -> %d", c.Request.Method, c.Request.URL.Path, c.Writer.Status())
	}
}
