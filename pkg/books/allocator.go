package books

import (
	"context"
	"database/sql"

	"github.com/meyeras/library-management-system/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// The allocator decides which physical copy backs a loan. Selection is
// deterministic: the unborrowed copy with the lowest id. All functions accept
// a bun.IDB so callers can run them inside their own transaction.

// PickAvailableCopy returns the unborrowed copy of the book with the lowest
// id, or nil if every copy is out.
func PickAvailableCopy(ctx context.Context, idb bun.IDB, bookID int) (*models.Copy, error) {
	cp := &models.Copy{}
	err := idb.NewSelect().
		Model(cp).
		Where("book_id = ?", bookID).
		Where("borrowed = ?", false).
		Order("id ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.WithStack(err)
	}
	return cp, nil
}

// ClaimCopy flips the copy's borrowed flag to true, but only if it is still
// unborrowed. It reports whether the claim won; losing means a concurrent
// borrow took the copy first.
func ClaimCopy(ctx context.Context, idb bun.IDB, copyID int) (bool, error) {
	res, err := idb.NewUpdate().
		Model((*models.Copy)(nil)).
		Set("borrowed = ?", true).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", copyID).
		Where("borrowed = ?", false).
		Exec(ctx)
	if err != nil {
		return false, errors.WithStack(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, errors.WithStack(err)
	}
	return affected == 1, nil
}

// ReleaseCopy flips the copy's borrowed flag back to false.
func ReleaseCopy(ctx context.Context, idb bun.IDB, copyID int) error {
	_, err := idb.NewUpdate().
		Model((*models.Copy)(nil)).
		Set("borrowed = ?", false).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", copyID).
		Exec(ctx)
	return errors.WithStack(err)
}

// CountAvailableCopies counts the book's unborrowed copies.
func CountAvailableCopies(ctx context.Context, idb bun.IDB, bookID int) (int, error) {
	return countCopies(ctx, idb, bookID, false)
}

// CountBorrowedCopies counts the book's borrowed copies.
func CountBorrowedCopies(ctx context.Context, idb bun.IDB, bookID int) (int, error) {
	return countCopies(ctx, idb, bookID, true)
}

func countCopies(ctx context.Context, idb bun.IDB, bookID int, borrowed bool) (int, error) {
	count, err := idb.NewSelect().
		Model((*models.Copy)(nil)).
		Where("book_id = ?", bookID).
		Where("borrowed = ?", borrowed).
		Count(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return count, nil
}
