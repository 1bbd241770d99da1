package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cppla/blog/models"
	"github.com/cppla/blog/store"
	"github.com/cppla/blog/utils"
)

type stubUsers map[uint]*models.User

func (s stubUsers) UserByID(_ context.Context, id uint) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

var (
	testCodec = utils.NewSessionCodec("test-secret", "session", time.Hour, false)
	testUsers = stubUsers{
		1: {ID: 1, Username: "admin", IsAdmin: true, IsApproved: true},
		2: {ID: 2, Username: "alice", IsApproved: true},
		3: {ID: 3, Username: "bob"},
	}
)

func newGuardedRouter(blacklist *utils.TokenBlacklist, guards ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Sessions(testCodec, blacklist, testUsers, zap.NewNop()))
	handlers := append(guards, func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/guarded", handlers...)
	return r
}

func requestAs(t *testing.T, r *gin.Engine, userID uint) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/guarded?x=1", nil)
	if userID != 0 {
		sess := utils.NewSession()
		sess.Login(userID)
		token, err := testCodec.Encode(sess)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: "session", Value: token})
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestGuards(t *testing.T) {
	blacklist := utils.NewTokenBlacklist(nil)

	cases := []struct {
		name     string
		guards   []gin.HandlerFunc
		userID   uint
		status   int
		location string
	}{
		{"Should send anonymous callers to login with next", []gin.HandlerFunc{RequireAuthenticated()}, 0, http.StatusFound, "/login?next=%2Fguarded%3Fx%3D1"},
		{"Should pass authenticated callers", []gin.HandlerFunc{RequireAuthenticated()}, 3, http.StatusOK, ""},
		{"Should send anonymous callers of admin pages to the feed", []gin.HandlerFunc{RequireAdmin()}, 0, http.StatusFound, "/"},
		{"Should send non-admins to the feed", []gin.HandlerFunc{RequireAdmin()}, 2, http.StatusFound, "/"},
		{"Should pass admins", []gin.HandlerFunc{RequireAdmin()}, 1, http.StatusOK, ""},
		{"Should stop unapproved authors", []gin.HandlerFunc{RequireAuthenticated(), RequireApproved()}, 3, http.StatusFound, "/"},
		{"Should pass approved authors", []gin.HandlerFunc{RequireAuthenticated(), RequireApproved()}, 2, http.StatusOK, ""},
		{"Should send signed-in callers away from anonymous pages", []gin.HandlerFunc{RequireAnonymous()}, 2, http.StatusFound, "/"},
		{"Should pass anonymous callers to anonymous pages", []gin.HandlerFunc{RequireAnonymous()}, 0, http.StatusOK, ""},
		{"Should treat deleted accounts as anonymous", []gin.HandlerFunc{RequireAuthenticated()}, 99, http.StatusFound, "/login?next=%2Fguarded%3Fx%3D1"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			rec := requestAs(t, newGuardedRouter(blacklist, tc.guards...), tc.userID)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.location, rec.Header().Get("Location"))
		})
	}

	t.Run("Should queue the guard message as a flash", func(t *testing.T) {
		rec := requestAs(t, newGuardedRouter(blacklist, RequireApproved()), 3)
		var cookie *http.Cookie
		for _, c := range rec.Result().Cookies() {
			if c.Name == "session" {
				cookie = c
			}
		}
		require.NotNil(t, cookie)
		sess, err := testCodec.Decode(cookie.Value)
		require.NoError(t, err)
		flashes := sess.PopFlashes()
		require.Len(t, flashes, 1)
		assert.Equal(t, utils.Flash{Category: utils.FlashError, Message: MsgApprovalRequired}, flashes[0])
	})
}

func TestSessions_Revoked(t *testing.T) {
	blacklist := utils.NewTokenBlacklist(nil)
	r := newGuardedRouter(blacklist, RequireAuthenticated())

	sess := utils.NewSession()
	sess.Login(2)
	token, err := testCodec.Encode(sess)
	require.NoError(t, err)
	require.NoError(t, blacklist.Revoke(context.Background(), sess.ID, sess.ExpiresAt))

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: token})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?next=%2Fguarded", rec.Header().Get("Location"))
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(utils.RequestIDKey)) })

	t.Run("Should generate an id when none is sent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		id := rec.Header().Get(utils.RequestIDKey)
		assert.Len(t, id, 36)
		assert.Equal(t, id, rec.Body.String())
	})

	t.Run("Should keep the caller's id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(utils.RequestIDKey, "abc")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, "abc", rec.Header().Get(utils.RequestIDKey))
	})
}
