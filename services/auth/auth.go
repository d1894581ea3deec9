package auth

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	"github.com/urfave/cli"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	sv "github.com/tubecast/web/services/common"
)

const (
	UseFlag                = "use-auth"
	googleClientIDFlag     = "google-client-id"
	googleClientSecretFlag = "google-client-secret"
)

func RegisterFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.BoolFlag{
			Name:   UseFlag,
			Usage:  "use auth",
			EnvVar: "USE_AUTH",
		},
		cli.StringFlag{
			Name:   googleClientIDFlag,
			Usage:  "google oauth client id",
			EnvVar: "GOOGLE_CLIENT_ID",
		},
		cli.StringFlag{
			Name:   googleClientSecretFlag,
			Usage:  "google oauth client secret",
			EnvVar: "GOOGLE_CLIENT_SECRET",
		},
	)
}

const (
	sessionUserKey  = "user"
	sessionStateKey = "oauth-state"

	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

func init() {
	gob.Register(&User{})
}

// User is the identity kept in the session for its whole lifetime.
type User struct {
	Email   string
	Name    string
	Picture string
}

func (s *User) HasAuth() bool {
	return s != nil && s.Email != ""
}

type UserContext struct{}

func GetUserFromContext(c *gin.Context) *User {
	if u := c.Request.Context().Value(UserContext{}); u != nil {
		return u.(*User)
	}
	return nil
}

func SetUserToSession(c *gin.Context, u *User) error {
	session := sessions.Default(c)
	session.Set(sessionUserKey, u)
	return errors.Wrap(session.Save(), "failed to save session")
}

func ClearSession(c *gin.Context) error {
	session := sessions.Default(c)
	session.Delete(sessionUserKey)
	return errors.Wrap(session.Save(), "failed to save session")
}

type Auth struct {
	cfg         *oauth2.Config
	cl          *http.Client
	userInfoURL string
}

func New(c *cli.Context, cl *http.Client) *Auth {
	if !c.Bool(UseFlag) {
		return nil
	}
	return &Auth{
		cl:          cl,
		userInfoURL: googleUserInfoURL,
		cfg: &oauth2.Config{
			ClientID:     c.String(googleClientIDFlag),
			ClientSecret: c.String(googleClientSecretFlag),
			RedirectURL:  c.String(sv.DomainFlag) + "/auth/callback/google",
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
	}
}

// RegisterHandler loads the session identity into the request context so
// that GetUserFromContext works for every route down the chain.
func (s *Auth) RegisterHandler(r *gin.Engine) {
	r.Use(func(c *gin.Context) {
		session := sessions.Default(c)
		if u, ok := session.Get(sessionUserKey).(*User); ok {
			ctx := context.WithValue(c.Request.Context(), UserContext{}, u)
			c.Request = c.Request.WithContext(ctx)
		}
	})
}

// HasAuth gates a route. Anonymous callers are redirected into the login
// flow, never rejected with an error status. With auth disabled it is a
// pass-through.
func (s *Auth) HasAuth(c *gin.Context) {
	if s == nil {
		return
	}
	if u := GetUserFromContext(c); u.HasAuth() {
		return
	}
	c.Redirect(http.StatusFound, "/login?return-url="+url.QueryEscape(c.Request.URL.RequestURI()))
	c.Abort()
}

// LoginURL stores a fresh state nonce in the session and returns the
// provider's consent page url.
func (s *Auth) LoginURL(c *gin.Context) (string, error) {
	state := uuid.NewV4().String()
	session := sessions.Default(c)
	session.Set(sessionStateKey, state)
	if err := session.Save(); err != nil {
		return "", errors.Wrap(err, "failed to save session")
	}
	return s.cfg.AuthCodeURL(state), nil
}

// Exchange completes the handshake: checks the state nonce, trades the
// authorization code for a token and fetches the user's profile.
func (s *Auth) Exchange(c *gin.Context) (*User, error) {
	session := sessions.Default(c)
	state, _ := session.Get(sessionStateKey).(string)
	session.Delete(sessionStateKey)
	_ = session.Save()
	if state == "" || c.Query("state") != state {
		return nil, errors.New("oauth state mismatch")
	}
	code := c.Query("code")
	if code == "" {
		return nil, errors.New("no authorization code provided")
	}
	ctx := context.WithValue(c.Request.Context(), oauth2.HTTPClient, s.cl)
	tok, err := s.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "failed to exchange authorization code")
	}
	return s.fetchUser(ctx, tok)
}

func (s *Auth) fetchUser(ctx context.Context, tok *oauth2.Token) (*User, error) {
	resp, err := s.cfg.Client(ctx, tok).Get(s.userInfoURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch user info")
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, errors.Errorf("user info error: %v - %v", resp.StatusCode, string(body))
	}
	var u struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, errors.Wrap(err, "decode user info")
	}
	return &User{
		Email:   u.Email,
		Name:    u.Name,
		Picture: u.Picture,
	}, nil
}
