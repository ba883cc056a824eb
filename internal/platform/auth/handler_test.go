package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newAPIRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r.Group("/api/auth"), svc, testSecret)
	return r
}

func postJSON(r *gin.Engine, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthAPIFlow(t *testing.T) {
	svc := newTestService(t)
	r := newAPIRouter(svc)

	// 登録。レスポンスにパスワードハッシュが漏れていないこと
	w := postJSON(r, "/api/auth/register", "", `{"username":"alice","password":"secret1","role":"member"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, w.Body.String(), `"username":"alice"`)
	require.NotContains(t, w.Body.String(), "password")
	require.NotContains(t, w.Body.String(), "hash")

	// フィールド抜けは400
	w = postJSON(r, "/api/auth/register", "", `{"username":"bob"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// 同名は409
	w = postJSON(r, "/api/auth/register", "", `{"username":"alice","password":"x","role":"member"}`)
	require.Equal(t, http.StatusConflict, w.Code)

	// ログイン失敗は401
	w = postJSON(r, "/api/auth/login", "", `{"username":"alice","password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// ログイン成功でトークンとロールが返る
	w = postJSON(r, "/api/auth/login", "", `{"username":"alice","password":"secret1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var loginResp struct {
		Token string `json:"token"`
		Role  string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loginResp))
	require.NotEmpty(t, loginResp.Token)
	require.Equal(t, "member", loginResp.Role)

	// パスワード変更 → 旧パスワードでは入れない
	req := httptest.NewRequest(http.MethodPut, "/api/auth/password",
		strings.NewReader(`{"currentPassword":"secret1","newPassword":"secret2"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+loginResp.Token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	w = postJSON(r, "/api/auth/login", "", `{"username":"alice","password":"secret1"}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	w = postJSON(r, "/api/auth/login", "", `{"username":"alice","password":"secret2"}`)
	require.Equal(t, http.StatusOK, w.Code)
}
