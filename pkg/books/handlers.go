package books

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/meyeras/library-management-system/pkg/auth"
	"github.com/meyeras/library-management-system/pkg/errcodes"
	"github.com/pkg/errors"
)

type handler struct {
	bookService *Service
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateBooksPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	entries := make([]CreateBookOptions, 0, len(params.Books))
	for _, b := range params.Books {
		copies := 1
		if b.Copies != nil {
			copies = *b.Copies
		}
		entries = append(entries, CreateBookOptions{
			Title:  b.Title,
			Author: b.Author,
			ISBN:   b.ISBN,
			Copies: copies,
		})
	}

	created, err := h.bookService.CreateBooks(ctx, entries)
	if err != nil {
		return err
	}

	summaries := make([]*BookSummary, 0, len(created))
	for _, book := range created {
		summaries = append(summaries, &BookSummary{
			ID:     book.ID,
			Title:  book.Title,
			Author: book.Author.Name,
			ISBN:   book.ISBN,
		})
	}

	resp := struct {
		Books []*BookSummary `json:"books"`
	}{summaries}

	return c.JSON(http.StatusCreated, resp)
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListBooksQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	books, hasMore, err := h.bookService.ListBooks(ctx, ListBooksOptions(params))
	if err != nil {
		return err
	}

	resp := struct {
		Books   []*BookSummary `json:"books"`
		Page    int            `json:"page"`
		Limit   int            `json:"limit"`
		HasMore bool           `json:"has_more"`
	}{books, params.Page, params.Limit, hasMore}

	return c.JSON(http.StatusOK, resp)
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	identity, _ := auth.CurrentIdentity(c)

	details, err := h.bookService.RetrieveBookDetails(ctx, id, identity.IsAdmin)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, details)
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	params := UpdateBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book, err := h.bookService.UpdateBook(ctx, id, UpdateBookOptions(params))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, &BookSummary{
		ID:     book.ID,
		Title:  book.Title,
		Author: book.Author.Name,
		ISBN:   book.ISBN,
	})
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	if err := h.bookService.DeleteBook(ctx, id); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
