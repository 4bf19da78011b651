package api

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"time"

	"github.com/1F47E/go-framereel/internal/player"
	"github.com/1F47E/go-framereel/internal/registry"
	"github.com/1F47E/go-framereel/pkg/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Server struct {
	registry  *registry.Registry
	startTime time.Time
}

func NewServer(reg *registry.Registry) *Server {
	return &Server{
		registry:  reg,
		startTime: time.Now(),
	}
}

// Engine builds a gin engine with CORS and the API routes.
func (s *Server) Engine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Length", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))
	s.SetupRoutes(r)
	return r
}

func (s *Server) SetupRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.GET("/health", s.handleHealth)

		api.GET("/sequences", s.handleList)
		api.GET("/sequences/:name", s.handleStatus)
		api.GET("/sequences/:name/frame", s.handleFrame)
		api.POST("/sequences/:name/:action", s.handleControl)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, ApiResponse{
		Status: "success",
		Data: HealthResponse{
			Sequences: s.registry.Len(),
			Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		},
	})
}

func (s *Server) handleList(c *gin.Context) {
	c.JSON(http.StatusOK, ApiResponse{
		Status: "success",
		Data:   s.registry.Statuses(),
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	p, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ApiResponse{
		Status: "success",
		Data:   p.Status(),
	})
}

func (s *Server) handleControl(c *gin.Context) {
	p, ok := s.lookup(c)
	if !ok {
		return
	}

	action := c.Param("action")
	switch action {
	case "play":
		p.Play()
	case "pause":
		p.Pause()
	case "stop":
		p.Stop()
	case "reset":
		p.Reset()
	default:
		c.JSON(http.StatusBadRequest, ApiResponse{
			Status: "error",
			Error:  fmt.Sprintf("unknown action %q, use play, pause, stop or reset", action),
		})
		return
	}

	c.JSON(http.StatusOK, ApiResponse{
		Status:  "success",
		Message: fmt.Sprintf("%s: %s", p.Name(), action),
		Data:    p.Status(),
	})
}

// handleFrame encodes the displayed frame as PNG.
func (s *Server) handleFrame(c *gin.Context) {
	p, ok := s.lookup(c)
	if !ok {
		return
	}

	frame, err := p.CurrentFrame()
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, player.ErrNotInitialized) {
			code = http.StatusConflict
		}
		c.JSON(code, ApiResponse{Status: "error", Error: err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, frame.Image); err != nil {
		c.JSON(http.StatusInternalServerError, ApiResponse{Status: "error", Error: err.Error()})
		return
	}
	c.Header("X-Frame-Index", fmt.Sprint(frame.Index))
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) lookup(c *gin.Context) (*player.Player, bool) {
	name := c.Param("name")
	p, err := s.registry.Lookup(name)
	if err != nil {
		c.JSON(http.StatusNotFound, ApiResponse{
			Status: "error",
			Error:  err.Error(),
		})
		return nil, false
	}
	return p, true
}

func requestLogger() gin.HandlerFunc {
	log := logger.Scope("api")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debugf("%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
