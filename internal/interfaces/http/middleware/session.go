package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rotem1230/gal1/internal/domain/cart"
	"github.com/rotem1230/gal1/internal/infrastructure/logger"
)

const (
	// DefaultSessionCookie names the cart session cookie
	DefaultSessionCookie = "cart_session"
	// DefaultSessionHeader lets API clients without cookies name their session
	DefaultSessionHeader = "X-Cart-Session"
	// SessionKey is the gin context key of the resolved cart session
	SessionKey = "cart_session"

	maxSessionIDLength = 128
)

// SessionConfig controls how the cart session travels
type SessionConfig struct {
	CookieName string
	HeaderName string
	MaxAge     int // seconds, 0 means a browser session cookie
	Secure     bool
}

// DefaultSessionConfig returns the defaults used when nothing is configured
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		CookieName: DefaultSessionCookie,
		HeaderName: DefaultSessionHeader,
		MaxAge:     7 * 24 * 3600,
	}
}

// CartSession resolves the session a request's cart belongs to. The header
// wins over the cookie; a request carrying neither gets a fresh id, which is
// echoed back in both the cookie and the header.
func CartSession(cfg SessionConfig) gin.HandlerFunc {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultSessionCookie
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = DefaultSessionHeader
	}

	return func(c *gin.Context) {
		id := c.GetHeader(cfg.HeaderName)
		if id == "" {
			if cookie, err := c.Cookie(cfg.CookieName); err == nil {
				id = cookie
			}
		}
		session, err := cart.NewSession(id)
		if err != nil || len(session.ID) > maxSessionIDLength {
			session = cart.Session{ID: uuid.NewString()}
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cfg.CookieName, session.ID, cfg.MaxAge, "/", "", cfg.Secure, true)
		c.Writer.Header().Set(cfg.HeaderName, session.ID)

		c.Set(SessionKey, session)
		c.Request = c.Request.WithContext(logger.WithSessionID(c.Request.Context(), session.ID))
		c.Next()
	}
}

// GetSession returns the cart session resolved by CartSession
func GetSession(c *gin.Context) (cart.Session, bool) {
	v, ok := c.Get(SessionKey)
	if !ok {
		return cart.Session{}, false
	}
	s, ok := v.(cart.Session)
	return s, ok && s.ID != ""
}
