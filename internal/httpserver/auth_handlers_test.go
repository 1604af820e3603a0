package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/scorewire/cricket-api/internal/mail"
	"github.com/scorewire/cricket-api/internal/middleware"
	"github.com/scorewire/cricket-api/internal/models"
	"github.com/scorewire/cricket-api/internal/repo"
	"github.com/scorewire/cricket-api/internal/service"
	"github.com/scorewire/cricket-api/internal/tokens"
)

type fakeMailer struct{ fail bool }

func (m *fakeMailer) SendMail(context.Context, []string, string, mail.Body) error {
	if m.fail {
		return fmt.Errorf("smtp: connection refused")
	}
	return nil
}

type handlerEnv struct {
	e      *echo.Echo
	rp     *repo.GormRepo
	mailer *fakeMailer
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.VerificationToken{}, &models.Player{}))

	rp := &repo.GormRepo{DB: db}
	issuer := &tokens.Issuer{Secret: []byte("test-jwt-secret")}
	mailer := &fakeMailer{}

	authSvc := &service.AuthService{
		Repo:      rp,
		Issuer:    issuer,
		Mailer:    mailer,
		ServerURL: "http://localhost:8080",
	}
	playerSvc := &service.PlayerService{Repo: rp}

	e := echo.New()
	Register(e, &Deps{
		AuthHandler:   &AuthHTTP{Svc: authSvc},
		PlayerHandler: &PlayerHTTP{Svc: playerSvc},
		Guard:         middleware.NewSessionGuard(issuer, rp),
	})

	return &handlerEnv{e: e, rp: rp, mailer: mailer}
}

func (env *handlerEnv) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

// data unwraps the {"data": ...} envelope every endpoint responds with.
func data(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var resp struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Data, "response is not wrapped in a data envelope: %s", rec.Body.String())
	return resp.Data
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func registerAnn(t *testing.T, env *handlerEnv) {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/auth/register", map[string]string{
		"name": "Ann", "email": "ann@x.com", "userId": "ann1", "password": "pw123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterHandler(t *testing.T) {
	t.Parallel()

	env := newHandlerEnv(t)
	rec := env.do(t, http.MethodPost, "/auth/register", map[string]string{
		"name": "Ann", "email": "Ann@X.com", "userId": "Ann1", "password": "pw123",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	d := data(t, rec)
	assert.Equal(t, "user created successfully", d["message"])

	user, ok := d["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ann1", user["userId"])
	assert.Equal(t, "ann@x.com", user["email"])
	assert.Equal(t, "USER", user["role"])
	assert.Equal(t, false, user["verified"])

	// The hashed secret and refresh token must never be serialized.
	for key := range user {
		assert.NotContains(t, []string{"password", "passwordHash", "PasswordHash", "refreshToken"}, key)
	}
}

func TestRegisterHandler_ValidationAndConflict(t *testing.T) {
	t.Parallel()

	env := newHandlerEnv(t)
	registerAnn(t, env)

	rec := env.do(t, http.MethodPost, "/auth/register", map[string]string{
		"email": "ann@x.com", "userId": "ann2", "password": "pw123",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email already exists", data(t, rec)["error"])

	rec = env.do(t, http.MethodPost, "/auth/register", map[string]string{
		"email": "x@y.com", "userId": "ann1",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "please provide all the required fields", data(t, rec)["error"])

	rec = env.do(t, http.MethodPost, "/auth/register", map[string]string{
		"email": "nonsense", "userId": "ann3", "password": "pw123",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "please provide a valid email", data(t, rec)["error"])
}

func TestLoginHandler_SetsCookiesAndStripsSecrets(t *testing.T) {
	t.Parallel()

	env := newHandlerEnv(t)
	registerAnn(t, env)

	rec := env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"emailOrUserId": "ann@x.com", "password": "pw123",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	d := data(t, rec)
	assert.NotEmpty(t, d["accessToken"])
	assert.NotEmpty(t, d["refreshToken"])

	user, ok := d["user"].(map[string]any)
	require.True(t, ok)
	_, hasPassword := user["password"]
	assert.False(t, hasPassword)

	access := cookieNamed(rec, "accessToken")
	require.NotNil(t, access)
	assert.True(t, access.HttpOnly)
	assert.True(t, access.Secure)

	refresh := cookieNamed(rec, "refreshToken")
	require.NotNil(t, refresh)
	assert.True(t, refresh.HttpOnly)
	assert.True(t, refresh.Secure)
}

func TestLoginHandler_BadCredentials(t *testing.T) {
	t.Parallel()

	env := newHandlerEnv(t)
	registerAnn(t, env)

	rec := env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"emailOrUserId": "ann@x.com", "password": "wrong",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "incorrect username or password", data(t, rec)["error"])

	rec = env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"emailOrUserId": "ghost@x.com", "password": "pw123",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "user not found", data(t, rec)["error"])
}

func TestVerifyHandler_SingleUse(t *testing.T) {
	t.Parallel()

	env := newHandlerEnv(t)
	registerAnn(t, env)

	vt, err := env.rp.FindVerificationByUserID(context.Background(), "ann1")
	require.NoError(t, err)

	rec := env.do(t, http.MethodGet, "/auth/verify/"+vt.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user verified successfully", data(t, rec)["message"])

	user, err := env.rp.FindUserByUserID(context.Background(), "ann1")
	require.NoError(t, err)
	assert.True(t, user.Verified)

	rec = env.do(t, http.MethodGet, "/auth/verify/"+vt.Token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "token not found", data(t, rec)["error"])
}

func TestSendVerificationMailHandler(t *testing.T) {
	t.Parallel()

	env := newHandlerEnv(t)
	registerAnn(t, env)

	login := env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"emailOrUserId": "ann1", "password": "pw123",
	})
	require.Equal(t, http.StatusOK, login.Code)
	access := cookieNamed(login, "accessToken")
	require.NotNil(t, access)

	t.Run("requires auth", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/auth/sendVerificationMail", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "no token provided", data(t, rec)["error"])
	})

	t.Run("rate limited while a token is live", func(t *testing.T) {
		// Registration already issued a token less than an hour ago.
		rec := env.do(t, http.MethodPost, "/auth/sendVerificationMail", nil, access)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, data(t, rec)["error"], "verification mail already sent")
	})
}

func TestSendVerificationMailHandler_DispatchFailureIs200(t *testing.T) {
	t.Parallel()

	env := newHandlerEnv(t)
	env.mailer.fail = true
	registerAnn(t, env)

	login := env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"emailOrUserId": "ann1", "password": "pw123",
	})
	require.Equal(t, http.StatusOK, login.Code)
	access := cookieNamed(login, "accessToken")

	// Drop the live token so the send is attempted again.
	require.NoError(t, env.rp.DB.Where("user_id = ?", "ann1").Delete(&models.VerificationToken{}).Error)

	rec := env.do(t, http.MethodPost, "/auth/sendVerificationMail", nil, access)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "error in sending mail", data(t, rec)["message"])
}

func TestLogoutHandler(t *testing.T) {
	t.Parallel()

	env := newHandlerEnv(t)
	registerAnn(t, env)

	login := env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"emailOrUserId": "ann@x.com", "password": "pw123",
	})
	access := cookieNamed(login, "accessToken")
	refresh := cookieNamed(login, "refreshToken")
	require.NotNil(t, refresh)

	t.Run("missing cookie", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/auth/logout", nil, access)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "refresh token not found", data(t, rec)["error"])
	})

	t.Run("success clears cookies and stored token", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/auth/logout", nil, access, refresh)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user logged out successfully", data(t, rec)["message"])

		cleared := cookieNamed(rec, "refreshToken")
		require.NotNil(t, cleared)
		assert.Empty(t, cleared.Value)
		assert.Negative(t, cleared.MaxAge)

		user, err := env.rp.FindUserByUserID(context.Background(), "ann1")
		require.NoError(t, err)
		assert.Nil(t, user.RefreshToken)
	})
}

func TestRefreshHandler(t *testing.T) {
	t.Parallel()

	env := newHandlerEnv(t)
	registerAnn(t, env)

	login := env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"emailOrUserId": "ann@x.com", "password": "pw123",
	})
	refresh := cookieNamed(login, "refreshToken")
	require.NotNil(t, refresh)

	t.Run("missing token", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/auth/refreshAccessToken", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "refresh token not found", data(t, rec)["error"])
	})

	t.Run("token from body", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/auth/refreshAccessToken", map[string]string{
			"refreshToken": refresh.Value,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		d := data(t, rec)
		assert.NotEmpty(t, d["accessToken"])
		assert.NotEmpty(t, d["refreshToken"])
		assert.NotEqual(t, refresh.Value, d["refreshToken"])
		require.NotNil(t, cookieNamed(rec, "accessToken"))
		require.NotNil(t, cookieNamed(rec, "refreshToken"))
	})

	t.Run("rotated-out token is rejected", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/auth/refreshAccessToken", nil, refresh)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid refresh token", data(t, rec)["error"])
	})
}

func TestErrorEnvelope_UnanticipatedFailure(t *testing.T) {
	t.Parallel()

	env := newHandlerEnv(t)

	// Closing the underlying store makes every lookup fail internally.
	sqlDB, err := env.rp.DB.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	rec := env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"emailOrUserId": "ann@x.com", "password": "pw123",
	})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "something went wrong", data(t, rec)["error"])
}
