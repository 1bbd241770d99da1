package utils

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidSession is returned for tokens that fail signature, expiry or shape checks.
var ErrInvalidSession = errors.New("invalid session token")

// Flash categories used by the templates.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

// Flash is a one-shot notice shown on the next rendered page.
type Flash struct {
	Category string `json:"c"`
	Message  string `json:"m"`
}

// SessionClaims is the signed payload stored in the session cookie.
type SessionClaims struct {
	UserID  uint    `json:"uid,omitempty"`
	Flashes []Flash `json:"fl,omitempty"`
	jwt.RegisteredClaims
}

// Session is the per-request view of a caller: anonymous when UserID is 0.
// ID stays stable across re-issued cookies until login or logout, so it can
// be revoked as a whole.
type Session struct {
	ID        string
	UserID    uint
	ExpiresAt time.Time
	flashes   []Flash
	dirty     bool
}

// NewSession starts an anonymous session.
func NewSession() *Session {
	return &Session{ID: uuid.NewString()}
}

// IsAuthenticated reports whether the session is bound to an account.
func (s *Session) IsAuthenticated() bool {
	return s.UserID != 0
}

// Login binds the session to userID under a fresh session id.
func (s *Session) Login(userID uint) {
	s.ID = uuid.NewString()
	s.UserID = userID
	s.dirty = true
}

// Logout drops the account binding and moves to a fresh anonymous id.
// Pending flashes survive so the "logged out" notice can be shown.
func (s *Session) Logout() {
	s.ID = uuid.NewString()
	s.UserID = 0
	s.dirty = true
}

// AddFlash queues a message for the next rendered page.
func (s *Session) AddFlash(category, message string) {
	s.flashes = append(s.flashes, Flash{Category: category, Message: message})
	s.dirty = true
}

// PopFlashes returns and clears queued messages.
func (s *Session) PopFlashes() []Flash {
	out := s.flashes
	if len(out) > 0 {
		s.flashes = nil
		s.dirty = true
	}
	return out
}

// Dirty reports whether the session must be written back.
func (s *Session) Dirty() bool {
	return s.dirty
}

// SessionCodec signs sessions into cookies and reads them back.
type SessionCodec struct {
	secret     []byte
	cookieName string
	maxAge     time.Duration
	secure     bool
}

// NewSessionCodec returns a codec for HS256-signed session cookies.
func NewSessionCodec(secret, cookieName string, maxAge time.Duration, secure bool) *SessionCodec {
	return &SessionCodec{
		secret:     []byte(secret),
		cookieName: cookieName,
		maxAge:     maxAge,
		secure:     secure,
	}
}

// CookieName is the name of the session cookie.
func (c *SessionCodec) CookieName() string {
	return c.cookieName
}

// Encode signs the session, extending its expiry by the configured max age.
func (c *SessionCodec) Encode(s *Session) (string, error) {
	now := time.Now()
	s.ExpiresAt = now.Add(c.maxAge)
	claims := SessionClaims{
		UserID:  s.UserID,
		Flashes: s.flashes,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Decode validates a token and rebuilds the session it carries.
func (c *SessionCodec) Decode(tokenStr string) (*Session, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidSession, err)
	}
	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid || claims.ID == "" {
		return nil, ErrInvalidSession
	}
	s := &Session{
		ID:      claims.ID,
		UserID:  claims.UserID,
		flashes: claims.Flashes,
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

// Read loads the session from the request cookie. Missing or invalid
// cookies yield a new anonymous session together with the decode error.
func (c *SessionCodec) Read(ctx *gin.Context) (*Session, error) {
	raw, err := ctx.Cookie(c.cookieName)
	if err != nil || raw == "" {
		return NewSession(), nil
	}
	s, err := c.Decode(raw)
	if err != nil {
		return NewSession(), err
	}
	return s, nil
}

// Write sets the session cookie on the response. It must run before the
// response body or redirect is written.
func (c *SessionCodec) Write(ctx *gin.Context, s *Session) error {
	token, err := c.Encode(s)
	if err != nil {
		return err
	}
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(c.cookieName, token, int(c.maxAge/time.Second), "/", "", c.secure, true)
	s.dirty = false
	return nil
}
