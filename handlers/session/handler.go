package session

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/urfave/cli"

	sv "github.com/tubecast/web/services/common"
)

const sessionName = "session"

// RegisterHandler installs the signed-cookie session store. It backs both
// the login-gate identity and the oauth state nonce.
func RegisterHandler(c *cli.Context, r *gin.Engine) error {
	store := cookie.NewStore([]byte(c.String(sv.SessionSecretFlag)))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
	})
	r.Use(sessions.Sessions(sessionName, store))
	return nil
}
