package index

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tubecast/web/services/auth"
)

type Data struct {
	User *auth.User
}

type Handler struct{}

func RegisterHandler(r *gin.Engine, a *auth.Auth) {
	h := &Handler{}
	r.GET("/", a.HasAuth, h.index)
}

func (s *Handler) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index", &Data{
		User: auth.GetUserFromContext(c),
	})
}
