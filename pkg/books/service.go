package books

import (
	"context"
	"database/sql"
	"time"

	"github.com/meyeras/library-management-system/pkg/errcodes"
	"github.com/meyeras/library-management-system/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// CreateBookOptions contains options for adding one catalog entry.
type CreateBookOptions struct {
	Title  string
	Author string
	ISBN   string
	Copies int
}

// CreateBook adds a book to the catalog. The author is resolved by exact name
// match, created if missing. If a book with the same non-empty ISBN already
// exists, the request merges into it: the given number of new unborrowed
// copies is added and the incoming title/author are ignored. The whole
// operation is one transaction.
func (svc *Service) CreateBook(ctx context.Context, opts CreateBookOptions) (*models.Book, error) {
	if opts.Copies < 0 {
		return nil, errcodes.ValidationError(`"copies" must be greater than or equal to 0`)
	}
	if opts.Title == "" {
		return nil, errcodes.ValidationError(`"title" is required`)
	}
	if opts.Author == "" {
		return nil, errcodes.ValidationError(`"author" is required`)
	}

	var book *models.Book
	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		// Merge-on-isbn: a non-empty isbn identifies an existing entry.
		if opts.ISBN != "" {
			existing := &models.Book{}
			err := tx.NewSelect().
				Model(existing).
				Relation("Author").
				Where("b.isbn = ?", opts.ISBN).
				Scan(ctx)
			if err == nil {
				book = existing
				return insertCopies(ctx, tx, existing.ID, opts.Copies)
			}
			if !errors.Is(err, sql.ErrNoRows) {
				return errors.WithStack(err)
			}
		}

		author, err := resolveAuthor(ctx, tx, opts.Author)
		if err != nil {
			return err
		}

		now := time.Now()
		book = &models.Book{
			CreatedAt: now,
			UpdatedAt: now,
			AuthorID:  author.ID,
			Title:     opts.Title,
			ISBN:      opts.ISBN,
		}
		_, err = tx.NewInsert().Model(book).Returning("*").Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		book.Author = author

		return insertCopies(ctx, tx, book.ID, opts.Copies)
	})
	if err != nil {
		return nil, err
	}

	return book, nil
}

// CreateBooks adds a batch of catalog entries. Each entry is its own
// transaction, matching per-entry all-or-nothing semantics.
func (svc *Service) CreateBooks(ctx context.Context, entries []CreateBookOptions) ([]*models.Book, error) {
	created := make([]*models.Book, 0, len(entries))
	for _, opts := range entries {
		book, err := svc.CreateBook(ctx, opts)
		if err != nil {
			return nil, err
		}
		created = append(created, book)
	}
	return created, nil
}

// RetrieveBook gets a book with its author.
func (svc *Service) RetrieveBook(ctx context.Context, id int) (*models.Book, error) {
	book := &models.Book{}
	err := svc.db.NewSelect().
		Model(book).
		Relation("Author").
		Where("b.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}
	return book, nil
}

// BookDetails is the detail view of a catalog entry. Copy counts are only
// populated for admins.
type BookDetails struct {
	ID                int    `json:"id"`
	Title             string `json:"title"`
	Author            string `json:"author"`
	ISBN              string `json:"isbn"`
	NumCopies         *int   `json:"num_copies,omitempty"`
	NumBorrowedCopies *int   `json:"num_borrowed_copies,omitempty"`
}

// RetrieveBookDetails returns the detail view, including copy counts when the
// requester is an admin.
func (svc *Service) RetrieveBookDetails(ctx context.Context, id int, isAdmin bool) (*BookDetails, error) {
	book, err := svc.RetrieveBook(ctx, id)
	if err != nil {
		return nil, err
	}

	details := &BookDetails{
		ID:     book.ID,
		Title:  book.Title,
		Author: book.Author.Name,
		ISBN:   book.ISBN,
	}

	if isAdmin {
		total, err := svc.db.NewSelect().
			Model((*models.Copy)(nil)).
			Where("book_id = ?", book.ID).
			Count(ctx)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		borrowed, err := CountBorrowedCopies(ctx, svc.db, book.ID)
		if err != nil {
			return nil, err
		}
		details.NumCopies = &total
		details.NumBorrowedCopies = &borrowed
	}

	return details, nil
}

// ListBooksOptions contains filters and pagination for listing the catalog.
type ListBooksOptions struct {
	Title     *string
	Author    *string
	Available *bool
	Page      int
	Limit     int
}

// BookSummary is one row of the catalog listing.
type BookSummary struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	ISBN   string `json:"isbn"`
}

// ListBooks returns a page of the catalog. Title and author filters are
// case-insensitive substring matches. The available filter keeps the
// predicate the catalog has always exposed: a book matches when at least one
// of its copies has borrowed equal to the requested value.
func (svc *Service) ListBooks(ctx context.Context, opts ListBooksOptions) ([]*BookSummary, bool, error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	limit := opts.Limit
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	books := []*models.Book{}
	q := svc.db.NewSelect().
		Model(&books).
		Relation("Author").
		Order("b.id ASC")

	if opts.Title != nil && *opts.Title != "" {
		q = q.Where("b.title LIKE ? COLLATE NOCASE", "%"+*opts.Title+"%")
	}
	if opts.Author != nil && *opts.Author != "" {
		q = q.Where("author.name LIKE ? COLLATE NOCASE", "%"+*opts.Author+"%")
	}
	if opts.Available != nil {
		q = q.Where("EXISTS (SELECT 1 FROM copies c WHERE c.book_id = b.id AND c.borrowed = ?)", *opts.Available)
	}

	// Fetch one extra row to compute has_more without a second count query.
	err := q.Offset((page - 1) * limit).Limit(limit + 1).Scan(ctx)
	if err != nil {
		return nil, false, errors.WithStack(err)
	}

	hasMore := len(books) > limit
	if hasMore {
		books = books[:limit]
	}

	summaries := make([]*BookSummary, 0, len(books))
	for _, book := range books {
		summaries = append(summaries, &BookSummary{
			ID:     book.ID,
			Title:  book.Title,
			Author: book.Author.Name,
			ISBN:   book.ISBN,
		})
	}

	return summaries, hasMore, nil
}

// UpdateBookOptions contains options for partially updating a book. Nil
// fields are left unchanged.
type UpdateBookOptions struct {
	Title  *string
	Author *string
	ISBN   *string
	Copies *int
}

// UpdateBook applies a partial update. Resizing the copy pool is part of the
// same transaction: growing adds unborrowed copies, shrinking removes the
// oldest unborrowed copies and fails when the target is below the number of
// currently borrowed copies.
func (svc *Service) UpdateBook(ctx context.Context, id int, opts UpdateBookOptions) (*models.Book, error) {
	if opts.Copies != nil && *opts.Copies < 0 {
		return nil, errcodes.ValidationError(`"copies" must be greater than or equal to 0`)
	}

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		book := &models.Book{}
		err := tx.NewSelect().
			Model(book).
			Where("b.id = ?", id).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errcodes.NotFound("Book")
			}
			return errors.WithStack(err)
		}

		if opts.Copies != nil {
			if err := resizeCopies(ctx, tx, book.ID, *opts.Copies); err != nil {
				return err
			}
		}

		columns := []string{}
		if opts.Title != nil {
			book.Title = *opts.Title
			columns = append(columns, "title")
		}
		if opts.Author != nil {
			author, err := resolveAuthor(ctx, tx, *opts.Author)
			if err != nil {
				return err
			}
			book.AuthorID = author.ID
			columns = append(columns, "author_id")
		}
		if opts.ISBN != nil && *opts.ISBN != book.ISBN {
			if *opts.ISBN != "" {
				exists, err := tx.NewSelect().
					Model((*models.Book)(nil)).
					Where("isbn = ?", *opts.ISBN).
					Where("id != ?", book.ID).
					Exists(ctx)
				if err != nil {
					return errors.WithStack(err)
				}
				if exists {
					return errcodes.Conflict("Another book already has this ISBN.")
				}
			}
			book.ISBN = *opts.ISBN
			columns = append(columns, "isbn")
		}

		if len(columns) > 0 {
			book.UpdatedAt = time.Now()
			columns = append(columns, "updated_at")
			_, err = tx.NewUpdate().
				Model(book).
				Column(columns...).
				WherePK().
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return svc.RetrieveBook(ctx, id)
}

// DeleteBook removes a book and all its copies. It fails while any copy is
// out on loan.
func (svc *Service) DeleteBook(ctx context.Context, id int) error {
	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.Book)(nil)).
			Where("id = ?", id).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return errcodes.NotFound("Book")
		}

		borrowed, err := CountBorrowedCopies(ctx, tx, id)
		if err != nil {
			return err
		}
		if borrowed > 0 {
			return errcodes.Conflict("Cannot delete a book with borrowed copies.")
		}

		_, err = tx.NewDelete().
			Model((*models.Copy)(nil)).
			Where("book_id = ?", id).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.NewDelete().
			Model((*models.Book)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		return errors.WithStack(err)
	})
}

// resizeCopies brings the book's copy pool to target inside the caller's
// transaction. Excess copies are deleted oldest id first, and only ones that
// are still unborrowed; the delete re-checks the flag so a copy borrowed
// after the count was taken is never removed.
func resizeCopies(ctx context.Context, tx bun.Tx, bookID, target int) error {
	total, err := tx.NewSelect().
		Model((*models.Copy)(nil)).
		Where("book_id = ?", bookID).
		Count(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	borrowed, err := CountBorrowedCopies(ctx, tx, bookID)
	if err != nil {
		return err
	}

	if target < borrowed {
		return errcodes.Conflict("Cannot reduce the number of copies below the number of borrowed copies.")
	}

	switch {
	case target < total:
		excess := total - target
		var ids []int
		err = tx.NewSelect().
			Model((*models.Copy)(nil)).
			Column("id").
			Where("book_id = ?", bookID).
			Where("borrowed = ?", false).
			Order("id ASC").
			Limit(excess).
			Scan(ctx, &ids)
		if err != nil {
			return errors.WithStack(err)
		}

		res, err := tx.NewDelete().
			Model((*models.Copy)(nil)).
			Where("id IN (?)", bun.In(ids)).
			Where("borrowed = ?", false).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return errors.WithStack(err)
		}
		if int(affected) != excess {
			// A copy was borrowed between the count and the delete.
			return errcodes.TransientConflict()
		}
	case target > total:
		return insertCopies(ctx, tx, bookID, target-total)
	}

	return nil
}

func insertCopies(ctx context.Context, tx bun.Tx, bookID, count int) error {
	if count == 0 {
		return nil
	}
	now := time.Now()
	copies := make([]*models.Copy, 0, count)
	for i := 0; i < count; i++ {
		copies = append(copies, &models.Copy{
			CreatedAt: now,
			UpdatedAt: now,
			BookID:    bookID,
		})
	}
	_, err := tx.NewInsert().Model(&copies).Exec(ctx)
	return errors.WithStack(err)
}

func resolveAuthor(ctx context.Context, tx bun.Tx, name string) (*models.Author, error) {
	author := &models.Author{}
	err := tx.NewSelect().
		Model(author).
		Where("name = ?", name).
		Scan(ctx)
	if err == nil {
		return author, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, errors.WithStack(err)
	}

	now := time.Now()
	author = &models.Author{
		CreatedAt: now,
		UpdatedAt: now,
		Name:      name,
	}
	_, err = tx.NewInsert().Model(author).Returning("*").Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return author, nil
}
