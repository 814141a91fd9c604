package borrows

import (
	"context"
	"database/sql"
	"time"

	"github.com/meyeras/library-management-system/pkg/books"
	"github.com/meyeras/library-management-system/pkg/config"
	"github.com/meyeras/library-management-system/pkg/database"
	"github.com/meyeras/library-management-system/pkg/errcodes"
	"github.com/meyeras/library-management-system/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type Service struct {
	db  *bun.DB
	cfg *config.Config
}

func NewService(db *bun.DB, cfg *config.Config) *Service {
	return &Service{db: db, cfg: cfg}
}

// Borrow lends a copy of the given book to the user. The copy is picked
// lowest id first and claimed with a guarded update inside the transaction,
// so two concurrent borrows of the last copy cannot both succeed.
func (svc *Service) Borrow(ctx context.Context, userID, bookID int) (*models.Borrow, error) {
	var borrow *models.Borrow
	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		active, err := svc.countActive(ctx, tx, userID)
		if err != nil {
			return err
		}
		if active >= svc.cfg.MaxBorrows {
			return errcodes.BorrowLimitReached(svc.cfg.MaxBorrows)
		}

		exists, err := tx.NewSelect().
			Model((*models.Book)(nil)).
			Where("id = ?", bookID).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return errcodes.NotFound("Book")
		}

		cp, err := books.PickAvailableCopy(ctx, tx, bookID)
		if err != nil {
			return err
		}
		if cp == nil {
			return errcodes.NoCopiesAvailable()
		}

		already, err := tx.NewSelect().
			Model((*models.Borrow)(nil)).
			Join("JOIN copies AS c ON c.id = bw.copy_id").
			Where("bw.user_id = ?", userID).
			Where("bw.return_date IS NULL").
			Where("c.book_id = ?", bookID).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if already {
			return errcodes.Conflict("You already have an active borrow of this book.")
		}

		claimed, err := books.ClaimCopy(ctx, tx, cp.ID)
		if err != nil {
			return err
		}
		if !claimed {
			// Lost the copy to a concurrent borrow between pick and claim.
			return errcodes.TransientConflict()
		}

		now := time.Now()
		borrow = &models.Borrow{
			CreatedAt:  now,
			UpdatedAt:  now,
			CopyID:     cp.ID,
			UserID:     userID,
			BorrowDate: now,
		}
		_, err = tx.NewInsert().Model(borrow).Returning("*").Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		if database.IsLockContention(err) {
			return nil, errcodes.TransientConflict()
		}
		return nil, err
	}

	return borrow, nil
}

// Return closes the user's active borrow of the given book and frees the
// copy, both in one transaction.
func (svc *Service) Return(ctx context.Context, userID, bookID int) (*models.Borrow, error) {
	var borrow *models.Borrow
	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.Book)(nil)).
			Where("id = ?", bookID).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return errcodes.NotFound("Book")
		}

		borrow = &models.Borrow{}
		err = tx.NewSelect().
			Model(borrow).
			Join("JOIN copies AS c ON c.id = bw.copy_id").
			Where("bw.user_id = ?", userID).
			Where("bw.return_date IS NULL").
			Where("c.book_id = ?", bookID).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errcodes.Conflict("You have no active borrow of this book.")
			}
			return errors.WithStack(err)
		}

		now := time.Now()
		borrow.ReturnDate = &now
		borrow.UpdatedAt = now
		_, err = tx.NewUpdate().
			Model(borrow).
			Column("return_date", "updated_at").
			WherePK().
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		return books.ReleaseCopy(ctx, tx, borrow.CopyID)
	})
	if err != nil {
		if database.IsLockContention(err) {
			return nil, errcodes.TransientConflict()
		}
		return nil, err
	}

	return borrow, nil
}

// BorrowDetails is one active loan in a user's listing, with its due date and
// any accrued fine.
type BorrowDetails struct {
	ID            int       `json:"id"`
	BookID        int       `json:"book_id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	BorrowDate    time.Time `json:"borrow_date"`
	MaxReturnDate time.Time `json:"max_return_date"`
	RemainingDays int       `json:"remaining_days"`
	Fine          float64   `json:"fine"`
}

// ActiveBorrows is the listing of a user's open loans.
type ActiveBorrows struct {
	Borrows   []*BorrowDetails `json:"borrows"`
	Count     int              `json:"count"`
	TotalFine float64          `json:"total_fine"`
}

// ListActiveForUser returns the user's open loans with per-loan fines.
// Remaining days are counted in calendar days, so a loan due today has zero
// remaining days and no fine regardless of the time of day it was taken.
func (svc *Service) ListActiveForUser(ctx context.Context, userID int) (*ActiveBorrows, error) {
	exists, err := svc.db.NewSelect().
		Model((*models.User)(nil)).
		Where("id = ?", userID).
		Exists(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if !exists {
		return nil, errcodes.NotFound("User")
	}

	borrowed := []*models.Borrow{}
	err = svc.db.NewSelect().
		Model(&borrowed).
		Relation("Copy").
		Relation("Copy.Book").
		Relation("Copy.Book.Author").
		Where("bw.user_id = ?", userID).
		Where("bw.return_date IS NULL").
		Order("bw.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	result := &ActiveBorrows{
		Borrows: make([]*BorrowDetails, 0, len(borrowed)),
	}
	now := time.Now()
	for _, b := range borrowed {
		due := b.BorrowDate.AddDate(0, 0, svc.cfg.MaxBorrowDays)
		remaining := daysBetween(now, due)

		fine := 0.0
		if remaining < 0 {
			fine = float64(-remaining) * svc.cfg.FinePerOverdueDay
		}

		details := &BorrowDetails{
			ID:            b.ID,
			BorrowDate:    b.BorrowDate,
			MaxReturnDate: due,
			RemainingDays: remaining,
			Fine:          fine,
		}
		if b.Copy != nil && b.Copy.Book != nil {
			details.BookID = b.Copy.Book.ID
			details.Title = b.Copy.Book.Title
			if b.Copy.Book.Author != nil {
				details.Author = b.Copy.Book.Author.Name
			}
		}

		result.Borrows = append(result.Borrows, details)
		result.TotalFine += fine
	}
	result.Count = len(result.Borrows)

	return result, nil
}

func (svc *Service) countActive(ctx context.Context, idb bun.IDB, userID int) (int, error) {
	count, err := idb.NewSelect().
		Model((*models.Borrow)(nil)).
		Where("user_id = ?", userID).
		Where("return_date IS NULL").
		Count(ctx)
	return count, errors.WithStack(err)
}

// daysBetween returns the calendar-day difference from a to b, ignoring the
// time of day on both ends.
func daysBetween(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
