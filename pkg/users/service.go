package users

import (
	"context"
	"database/sql"
	"time"

	"github.com/meyeras/library-management-system/pkg/auth"
	"github.com/meyeras/library-management-system/pkg/errcodes"
	"github.com/meyeras/library-management-system/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// Service handles user operations.
type Service struct {
	db *bun.DB
}

// NewService creates a new users service.
func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// RegisterOptions contains options for registering a user.
type RegisterOptions struct {
	Username string
	Email    string
	Password string
}

// Register creates a new user account.
func (s *Service) Register(ctx context.Context, opts RegisterOptions) (*models.User, error) {
	taken, err := s.usernameTaken(ctx, opts.Username, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, errcodes.Conflict("Username already exists.")
	}

	taken, err = s.emailTaken(ctx, opts.Email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, errcodes.Conflict("Email already exists.")
	}

	hashedPassword, err := auth.HashPassword(opts.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &models.User{
		CreatedAt:    now,
		UpdatedAt:    now,
		Username:     opts.Username,
		Email:        opts.Email,
		PasswordHash: hashedPassword,
	}

	_, err = s.db.NewInsert().Model(user).Returning("*").Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return user, nil
}

// Retrieve gets a user by ID.
func (s *Service) Retrieve(ctx context.Context, id int) (*models.User, error) {
	user := &models.User{}
	err := s.db.NewSelect().
		Model(user).
		Where("u.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("User")
		}
		return nil, errors.WithStack(err)
	}
	return user, nil
}

// ListOptions contains options for listing users.
type ListOptions struct {
	Limit  int
	Offset int
}

// List returns a paginated list of users.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]*models.User, int, error) {
	users := []*models.User{}

	query := s.db.NewSelect().
		Model(&users).
		Order("u.id ASC")

	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	total, err := query.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return users, total, nil
}

// UpdateOptions contains options for updating a user.
type UpdateOptions struct {
	Columns []string
}

// Update persists the given columns of an already-mutated user model,
// re-checking username/email uniqueness against other users.
func (s *Service) Update(ctx context.Context, user *models.User, opts UpdateOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	for _, column := range opts.Columns {
		switch column {
		case "username":
			taken, err := s.usernameTaken(ctx, user.Username, user.ID)
			if err != nil {
				return err
			}
			if taken {
				return errcodes.Conflict("Username already exists.")
			}
		case "email":
			taken, err := s.emailTaken(ctx, user.Email, user.ID)
			if err != nil {
				return err
			}
			if taken {
				return errcodes.Conflict("Email already exists.")
			}
		}
	}

	user.UpdatedAt = time.Now()
	opts.Columns = append(opts.Columns, "updated_at")
	_, err := s.db.NewUpdate().
		Model(user).
		Column(opts.Columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// SetAdmin grants or revokes the admin flag.
func (s *Service) SetAdmin(ctx context.Context, userID int, isAdmin bool) (*models.User, error) {
	user, err := s.Retrieve(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.IsAdmin = isAdmin
	_, err = s.db.NewUpdate().
		Model(user).
		Column("is_admin").
		Set("updated_at = CURRENT_TIMESTAMP").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return user, nil
}

func (s *Service) usernameTaken(ctx context.Context, username string, excludeID int) (bool, error) {
	query := s.db.NewSelect().
		Model((*models.User)(nil)).
		Where("username = ? COLLATE NOCASE", username)
	if excludeID != 0 {
		query = query.Where("id != ?", excludeID)
	}
	exists, err := query.Exists(ctx)
	return exists, errors.WithStack(err)
}

func (s *Service) emailTaken(ctx context.Context, email string, excludeID int) (bool, error) {
	query := s.db.NewSelect().
		Model((*models.User)(nil)).
		Where("email = ? COLLATE NOCASE", email)
	if excludeID != 0 {
		query = query.Where("id != ?", excludeID)
	}
	exists, err := query.Exists(ctx)
	return exists, errors.WithStack(err)
}
