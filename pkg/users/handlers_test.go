package users

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/meyeras/library-management-system/pkg/binder"
	"github.com/meyeras/library-management-system/pkg/errcodes"
	"github.com/meyeras/library-management-system/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandlerContext(t *testing.T, payload, method, path string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr), rr
}

func actAs(c echo.Context, user *models.User) {
	c.Set("user_id", user.ID)
	c.Set("user", user)
}

func TestHandlerRegister(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	h := &handler{userService: NewService(db)}

	payload := `{"username":"reader","email":"reader@example.com","password":"password123"}`
	c, rr := newHandlerContext(t, payload, http.MethodPost, "/register")

	require.NoError(t, h.register(c))
	assert.Equal(t, http.StatusCreated, rr.Code)

	var user models.User
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &user))
	assert.Equal(t, "reader", user.Username)
	// The hash never leaves the server.
	assert.NotContains(t, rr.Body.String(), "password")
}

func TestHandlerRegister_ShortPassword(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	h := &handler{userService: NewService(db)}

	payload := `{"username":"reader","email":"reader@example.com","password":"short"}`
	c, _ := newHandlerContext(t, payload, http.MethodPost, "/register")

	err := h.register(c)
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "validation_error", codeErr.Code)
}

func TestHandlerRetrieve_SelfOrAdmin(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := NewService(db)
	h := &handler{userService: svc}
	ctx := context.Background()

	alice, err := svc.Register(ctx, RegisterOptions{Username: "alice", Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)
	bob, err := svc.Register(ctx, RegisterOptions{Username: "bob", Email: "bob@example.com", Password: "password123"})
	require.NoError(t, err)

	// Herself: allowed.
	c, rr := newHandlerContext(t, "", http.MethodGet, "/users/"+strconv.Itoa(alice.ID))
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(alice.ID))
	actAs(c, alice)
	require.NoError(t, h.retrieve(c))
	assert.Equal(t, http.StatusOK, rr.Code)

	// Another plain user: forbidden.
	c, _ = newHandlerContext(t, "", http.MethodGet, "/users/"+strconv.Itoa(alice.ID))
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(alice.ID))
	actAs(c, bob)
	err = h.retrieve(c)
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, http.StatusForbidden, codeErr.HTTPCode)

	// An admin: allowed.
	admin := &models.User{ID: bob.ID, Username: bob.Username, IsAdmin: true}
	c, rr = newHandlerContext(t, "", http.MethodGet, "/users/"+strconv.Itoa(alice.ID))
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(alice.ID))
	actAs(c, admin)
	require.NoError(t, h.retrieve(c))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestHandlerUpdate_OtherUserForbidden(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := NewService(db)
	h := &handler{userService: svc}
	ctx := context.Background()

	alice, err := svc.Register(ctx, RegisterOptions{Username: "alice", Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)
	bob, err := svc.Register(ctx, RegisterOptions{Username: "bob", Email: "bob@example.com", Password: "password123"})
	require.NoError(t, err)

	payload := `{"username":"hijacked"}`
	c, _ := newHandlerContext(t, payload, http.MethodPut, "/users/"+strconv.Itoa(alice.ID))
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(alice.ID))
	actAs(c, bob)

	err = h.update(c)
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, http.StatusForbidden, codeErr.HTTPCode)
}

func TestHandlerUpdate_CannotTouchAdminFlag(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := NewService(db)
	h := &handler{userService: svc}
	ctx := context.Background()

	alice, err := svc.Register(ctx, RegisterOptions{Username: "alice", Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)

	// is_admin is not part of the self-update payload, so the strict
	// decoder rejects it outright.
	payload := `{"is_admin":true}`
	c, _ := newHandlerContext(t, payload, http.MethodPut, "/users/"+strconv.Itoa(alice.ID))
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(alice.ID))
	actAs(c, alice)

	err = h.update(c)
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "unknown_parameter", codeErr.Code)

	reloaded, err := svc.Retrieve(ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsAdmin)
}

func TestHandlerSetAdmin(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := NewService(db)
	h := &handler{userService: svc}
	ctx := context.Background()

	alice, err := svc.Register(ctx, RegisterOptions{Username: "alice", Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)

	c, rr := newHandlerContext(t, `{"is_admin":true}`, http.MethodPut, "/users/"+strconv.Itoa(alice.ID)+"/admin")
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(alice.ID))

	require.NoError(t, h.setAdmin(c))
	assert.Equal(t, http.StatusOK, rr.Code)

	reloaded, err := svc.Retrieve(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsAdmin)
}

func TestHandlerSetAdmin_MissingFlag(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := NewService(db)
	h := &handler{userService: svc}

	alice, err := svc.Register(context.Background(), RegisterOptions{Username: "alice", Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)

	c, _ := newHandlerContext(t, `{}`, http.MethodPut, "/users/"+strconv.Itoa(alice.ID)+"/admin")
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(alice.ID))

	err = h.setAdmin(c)
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "validation_error", codeErr.Code)
}
