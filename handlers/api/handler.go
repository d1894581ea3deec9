package api

import (
	"context"
	defaultErrors "errors"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/tubecast/web/services/auth"
	"github.com/tubecast/web/services/youtube"
	"github.com/tubecast/web/services/ytdlp"
)

const (
	noQueryMessage   = "No se proporcionó búsqueda"
	noVideoIDMessage = "No se proporcionó ID del video"
)

type Searcher interface {
	Search(ctx context.Context, query string) ([]youtube.SearchResult, error)
}

type StreamResolver interface {
	Resolve(ctx context.Context, videoID string) (*ytdlp.StreamInfo, error)
}

type SearchRequest struct {
	Query string `json:"query"`
}

type SearchResponse struct {
	Results []youtube.SearchResult `json:"results"`
}

type StreamRequest struct {
	VideoID string `json:"video_id"`
}

type Handler struct {
	yt  Searcher
	res StreamResolver
}

func RegisterHandler(r *gin.Engine, a *auth.Auth, yt Searcher, res StreamResolver) {
	h := &Handler{
		yt:  yt,
		res: res,
	}
	gr := r.Group("/api")
	gr.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST"},
	}))
	gr.Use(a.HasAuth)
	gr.POST("/search", h.search)
	gr.POST("/stream", h.stream)
}

func (s *Handler) search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": noQueryMessage})
		return
	}
	results, err := s.yt.Search(c.Request.Context(), req.Query)
	if err != nil {
		if defaultErrors.Is(err, youtube.ErrNoQuery) {
			c.JSON(http.StatusBadRequest, gin.H{"error": noQueryMessage})
			return
		}
		log.WithError(err).Error("failed to search videos")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, &SearchResponse{
		Results: results,
	})
}

func (s *Handler) stream(c *gin.Context) {
	var req StreamRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.VideoID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": noVideoIDMessage})
		return
	}
	info, err := s.res.Resolve(c.Request.Context(), req.VideoID)
	if err != nil {
		if defaultErrors.Is(err, ytdlp.ErrNoVideoID) {
			c.JSON(http.StatusBadRequest, gin.H{"error": noVideoIDMessage})
			return
		}
		log.WithError(err).Error("failed to resolve stream")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, info)
}
