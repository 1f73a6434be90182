package api

import (
	"context"
	"net/http"
	"time"

	"github.com/LJTian/NewsDigest/internal/digest"
	"github.com/LJTian/NewsDigest/internal/ranking"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Previewer 只读预览，不写状态也不发送
type Previewer interface {
	Preview(ctx context.Context) ([]ranking.Scored, *digest.Digest, error)
}

// StateReader 读取每日闸门与去重状态
type StateReader interface {
	Today(now time.Time) string
	LastSent(ctx context.Context) string
	LoadSeen(ctx context.Context) map[string]struct{}
}

type Server struct {
	previewer Previewer
	state     StateReader
	now       func() time.Time
}

func NewServer(previewer Previewer, state StateReader) *Server {
	return &Server{previewer: previewer, state: state, now: time.Now}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/state", s.getState)
		v1.GET("/preview", s.preview)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) getState(c *gin.Context) {
	ctx := c.Request.Context()
	today := s.state.Today(s.now())
	lastSent := s.state.LastSent(ctx)

	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data": gin.H{
			"today":     today,
			"lastSent":  lastSent,
			"sentToday": lastSent != "" && lastSent == today,
			"seenCount": len(s.state.LoadSeen(ctx)),
		},
	})
}

func (s *Server) preview(c *gin.Context) {
	items, d, err := s.previewer.Preview(c.Request.Context())
	if err != nil {
		log.WithError(err).Warn("preview failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "internal_error",
			"message": "internal server error",
		})
		return
	}

	data := gin.H{"items": items}
	if d != nil {
		data["subject"] = d.Subject
		data["body"] = d.Body
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    data,
	})
}
