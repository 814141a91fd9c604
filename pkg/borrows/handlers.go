package borrows

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/meyeras/library-management-system/pkg/auth"
	"github.com/meyeras/library-management-system/pkg/errcodes"
	"github.com/pkg/errors"
)

type handler struct {
	borrowService *Service
}

func (h *handler) borrow(c echo.Context) error {
	ctx := c.Request().Context()

	params := BorrowPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	identity, ok := auth.CurrentIdentity(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	borrow, err := h.borrowService.Borrow(ctx, identity.ID, params.BookID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, borrow)
}

func (h *handler) returnBook(c echo.Context) error {
	ctx := c.Request().Context()

	params := ReturnPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	identity, ok := auth.CurrentIdentity(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	borrow, err := h.borrowService.Return(ctx, identity.ID, params.BookID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, borrow)
}

func (h *handler) listForUser(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("User")
	}

	identity, ok := auth.CurrentIdentity(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}
	if !identity.CanView(userID) {
		return errcodes.Forbidden("Viewing another user's borrows")
	}

	active, err := h.borrowService.ListActiveForUser(ctx, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, active)
}
