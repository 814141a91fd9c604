package books

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
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
	if payload != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr), rr
}

func TestHandlerCreate_Batch(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	h := &handler{bookService: NewService(db)}

	payload := `{"books":[
		{"title":"Dune","author":"Frank Herbert","isbn":"9780441013593","copies":2},
		{"title":"Neuromancer","author":"William Gibson"}
	]}`
	c, rr := newHandlerContext(t, payload, http.MethodPost, "/books")

	require.NoError(t, h.create(c))
	assert.Equal(t, http.StatusCreated, rr.Code)

	var resp struct {
		Books []*BookSummary `json:"books"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Books, 2)
	assert.Equal(t, "Dune", resp.Books[0].Title)

	// Omitted copies defaults to one.
	count, err := db.NewSelect().
		Model((*models.Copy)(nil)).
		Where("book_id = ?", resp.Books[1].ID).
		Count(c.Request().Context())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestHandlerCreate_EmptyBatch(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	h := &handler{bookService: NewService(db)}

	c, _ := newHandlerContext(t, `{"books":[]}`, http.MethodPost, "/books")

	err := h.create(c)
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "validation_error", codeErr.Code)
}

func TestHandlerCreate_MissingTitle(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	h := &handler{bookService: NewService(db)}

	c, _ := newHandlerContext(t, `{"books":[{"author":"Frank Herbert"}]}`, http.MethodPost, "/books")

	err := h.create(c)
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "validation_error", codeErr.Code)
}

func TestHandlerList_QueryDefaults(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := NewService(db)
	h := &handler{bookService: svc}

	_, err := svc.CreateBook(context.Background(), CreateBookOptions{Title: "Dune", Author: "Frank Herbert", Copies: 1})
	require.NoError(t, err)

	c, rr := newHandlerContext(t, "", http.MethodGet, "/books")

	require.NoError(t, h.list(c))
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Books   []*BookSummary `json:"books"`
		Page    int            `json:"page"`
		Limit   int            `json:"limit"`
		HasMore bool           `json:"has_more"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 10, resp.Limit)
	assert.False(t, resp.HasMore)
	require.Len(t, resp.Books, 1)
}

func TestHandlerList_LimitTooLarge(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	h := &handler{bookService: NewService(db)}

	c, _ := newHandlerContext(t, "", http.MethodGet, "/books?limit=500")

	err := h.list(c)
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "validation_error", codeErr.Code)
}
