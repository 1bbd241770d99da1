package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionCodec_RoundTrip(t *testing.T) {
	codec := NewSessionCodec("test-secret", "session", time.Hour, false)

	t.Run("Should carry user id, session id and flashes", func(t *testing.T) {
		s := NewSession()
		s.Login(7)
		s.AddFlash(FlashSuccess, "Logged in successfully!")

		token, err := codec.Encode(s)
		require.NoError(t, err)

		got, err := codec.Decode(token)
		require.NoError(t, err)
		assert.Equal(t, s.ID, got.ID)
		assert.Equal(t, uint(7), got.UserID)
		assert.True(t, got.IsAuthenticated())
		assert.Equal(t, []Flash{{Category: FlashSuccess, Message: "Logged in successfully!"}}, got.PopFlashes())
		assert.WithinDuration(t, time.Now().Add(time.Hour), got.ExpiresAt, 5*time.Second)
	})

	t.Run("Should reject tokens signed with another key", func(t *testing.T) {
		other := NewSessionCodec("other-secret", "session", time.Hour, false)
		s := NewSession()
		s.Login(1)
		token, err := other.Encode(s)
		require.NoError(t, err)

		_, err = codec.Decode(token)
		assert.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("Should reject tampered tokens", func(t *testing.T) {
		s := NewSession()
		s.Login(1)
		token, err := codec.Encode(s)
		require.NoError(t, err)
		parts := strings.Split(token, ".")
		require.Len(t, parts, 3)
		parts[1] = parts[1] + "x"

		_, err = codec.Decode(strings.Join(parts, "."))
		assert.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("Should reject expired tokens", func(t *testing.T) {
		expired := NewSessionCodec("test-secret", "session", -time.Minute, false)
		token, err := expired.Encode(NewSession())
		require.NoError(t, err)

		_, err = codec.Decode(token)
		assert.ErrorIs(t, err, ErrInvalidSession)
	})
}

func TestSession_StateChanges(t *testing.T) {
	t.Run("Should rotate the id on login and logout", func(t *testing.T) {
		s := NewSession()
		assert.False(t, s.IsAuthenticated())
		assert.False(t, s.Dirty())
		anonID := s.ID

		s.Login(3)
		assert.True(t, s.IsAuthenticated())
		assert.NotEqual(t, anonID, s.ID)
		loggedID := s.ID

		s.AddFlash(FlashSuccess, "You have been logged out.")
		s.Logout()
		assert.False(t, s.IsAuthenticated())
		assert.NotEqual(t, loggedID, s.ID)
		assert.Len(t, s.PopFlashes(), 1)
		assert.Empty(t, s.PopFlashes())
	})
}

func TestSessionCodec_Cookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	codec := NewSessionCodec("test-secret", "session", time.Hour, true)

	t.Run("Should write an http-only cookie that reads back", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", http.NoBody)

		s := NewSession()
		s.Login(9)
		require.NoError(t, codec.Write(c, s))
		assert.False(t, s.Dirty())

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "session", cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)
		assert.True(t, cookies[0].Secure)
		assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)

		w2 := httptest.NewRecorder()
		c2, _ := gin.CreateTestContext(w2)
		c2.Request = httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		c2.Request.AddCookie(cookies[0])
		got, err := codec.Read(c2)
		require.NoError(t, err)
		assert.Equal(t, uint(9), got.UserID)
	})

	t.Run("Should fall back to an anonymous session on garbage", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		c.Request.AddCookie(&http.Cookie{Name: "session", Value: "not-a-token"})

		got, err := codec.Read(c)
		assert.ErrorIs(t, err, ErrInvalidSession)
		require.NotNil(t, got)
		assert.False(t, got.IsAuthenticated())
	})
}
