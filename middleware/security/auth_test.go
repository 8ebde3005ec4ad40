package security

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"SupportChat/module/chat/auth"
	"SupportChat/module/chat/directory"
	"SupportChat/module/chat/model"
	tsec "SupportChat/tools/security"

	"github.com/gin-gonic/gin"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var opts = tsec.DefaultOptions([]byte("middleware-secret"))

func sign(t *testing.T, id, role string) string {
	t.Helper()
	tok, _, err := tsec.Sign(opts, jwtlib.MapClaims{"user": map[string]any{"id": id, "role": role}})
	require.NoError(t, err)
	return tok
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer  abc "))
	assert.Equal(t, "", BearerToken("Basic abc"))
	assert.Equal(t, "", BearerToken("Bearer "))
	assert.Equal(t, "", BearerToken(""))
}

func TestMiddlewareStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	d := directory.NewMemDirectory()
	d.AddMembership("g1", model.Membership{TraderID: "t1", AdvisorID: "a1"})

	r := gin.New()
	r.GET("/x", Middleware(Options{Verifier: auth.NewTokenVerifier(opts), Authorizer: auth.NewAuthorizer(d)}),
		func(c *gin.Context) {
			id, ok := IdentityFrom(c)
			require.True(t, ok)
			c.JSON(http.StatusOK, gin.H{"userId": id.UserID, "groupId": c.GetString(CtxGroupIDKey)})
		})

	cases := []struct {
		name   string
		query  string
		authz  string
		status int
		msg    string
	}{
		{"no token", "?groupId=g1", "", http.StatusUnauthorized, "Unauthorized: No token"},
		{"bad token", "?groupId=g1", "Bearer junk", http.StatusUnauthorized, "Unauthorized: Invalid or expired token"},
		{"no group", "", "Bearer " + sign(t, "t1", "Trader"), http.StatusBadRequest, "groupId is required"},
		{"no group bad token", "", "Bearer junk", http.StatusBadRequest, "groupId is required"},
		{"no group no token", "", "", http.StatusUnauthorized, "Unauthorized: No token"},
		{"bad role", "?groupId=g1", "Bearer " + sign(t, "t1", "Guest"), http.StatusForbidden, "Forbidden: Role not allowed"},
		{"outsider", "?groupId=g1", "Bearer " + sign(t, "t9", "Trader"), http.StatusForbidden, "Forbidden: You are not part of this group"},
		{"member", "?groupId=g1", "Bearer " + sign(t, "t1", "Trader"), http.StatusOK, ""},
		{"admin", "?groupId=other", "Bearer " + sign(t, "boss", "Admin"), http.StatusOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x"+tc.query, nil)
			if tc.authz != "" {
				req.Header.Set("Authorization", tc.authz)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.msg != "" {
				var body map[string]string
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, tc.msg, body["message"])
			}
		})
	}

	t.Run("directory down", func(t *testing.T) {
		d.SetFail(true)
		defer d.SetFail(false)
		req := httptest.NewRequest(http.MethodGet, "/x?groupId=g1", nil)
		req.Header.Set("Authorization", "Bearer "+sign(t, "t1", "Trader"))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
