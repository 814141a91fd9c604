package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/meyeras/library-management-system/pkg/binder"
	"github.com/meyeras/library-management-system/pkg/errcodes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoginContext(t *testing.T, payload, contentType string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, contentType)
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr), rr
}

func TestHandlerLogin(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := NewService(db, "test-secret")
	h := &handler{authService: svc}

	user := createTestUser(t, db, "reader", "password123", false)

	payload := `{"username":"reader","password":"password123"}`
	c, rr := newLoginContext(t, payload, echo.MIMEApplicationJSON)

	require.NoError(t, h.login(c))
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "bearer", resp.TokenType)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestHandlerLogin_FormBody(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := NewService(db, "test-secret")
	h := &handler{authService: svc}

	createTestUser(t, db, "reader", "password123", false)

	form := url.Values{}
	form.Set("username", "reader")
	form.Set("password", "password123")
	c, rr := newLoginContext(t, form.Encode(), echo.MIMEApplicationForm)

	require.NoError(t, h.login(c))
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
}

func TestHandlerLogin_BadPassword(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	h := &handler{authService: NewService(db, "test-secret")}

	createTestUser(t, db, "reader", "password123", false)

	payload := `{"username":"reader","password":"wrong"}`
	c, _ := newLoginContext(t, payload, echo.MIMEApplicationJSON)

	err := h.login(c)
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, http.StatusUnauthorized, codeErr.HTTPCode)
}

func TestHandlerLogin_MissingFields(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	h := &handler{authService: NewService(db, "test-secret")}

	payload := `{"username":"reader"}`
	c, _ := newLoginContext(t, payload, echo.MIMEApplicationJSON)

	err := h.login(c)
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "validation_error", codeErr.Code)
}
