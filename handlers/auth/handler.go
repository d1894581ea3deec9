package auth

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/tubecast/web/services/auth"
)

type Handler struct {
	a *auth.Auth
}

func RegisterHandler(r *gin.Engine, a *auth.Auth) {
	h := &Handler{
		a: a,
	}
	r.GET("/login", h.login)
	r.GET("/logout", h.logout)
	r.GET("/auth/callback/google", h.callback)
}

func (s *Handler) login(c *gin.Context) {
	if s.a == nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	if u := auth.GetUserFromContext(c); u.HasAuth() {
		c.Redirect(http.StatusFound, s.returnURL(c))
		return
	}
	if ru := c.Query("return-url"); ru != "" {
		session := sessions.Default(c)
		session.Set("return-url", ru)
		_ = session.Save()
	}
	u, err := s.a.LoginURL(c)
	if err != nil {
		log.WithError(err).Error("failed to build login url")
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.Redirect(http.StatusFound, u)
}

func (s *Handler) callback(c *gin.Context) {
	if s.a == nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	u, err := s.a.Exchange(c)
	if err != nil {
		log.WithError(err).Error("failed to complete google auth")
		c.Redirect(http.StatusFound, "/login")
		return
	}
	if err := auth.SetUserToSession(c, u); err != nil {
		log.WithError(err).Error("failed to store identity")
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.Redirect(http.StatusFound, s.returnURL(c))
}

func (s *Handler) logout(c *gin.Context) {
	if s.a != nil {
		if err := auth.ClearSession(c); err != nil {
			log.WithError(err).Error("failed to clear session")
		}
	}
	c.Redirect(http.StatusFound, "/")
}

func (s *Handler) returnURL(c *gin.Context) string {
	session := sessions.Default(c)
	returnURL := "/"
	if v, ok := session.Get("return-url").(string); ok {
		if strings.HasPrefix(v, "/") {
			returnURL = v
		}
		session.Delete("return-url")
		_ = session.Save()
	}
	return returnURL
}
