package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marcoalvarez/boostgrid-backend/pkg/db"
	"github.com/marcoalvarez/boostgrid-backend/pkg/db/models"
	"github.com/marcoalvarez/boostgrid-backend/pkg/enums"
	pkgerrors "github.com/marcoalvarez/boostgrid-backend/pkg/errors"
)

const minUsernameLength = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service covers the self-service profile surface plus the admin user
// management operations.
type Service interface {
	Me(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*UserDTO, error)
	ListUsers(ctx context.Context, query UserListQuery) (*UserList, error)
	GetUser(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	BanUser(ctx context.Context, id uuid.UUID) error
	UnbanUser(ctx context.Context, id uuid.UUID) error
	// DeleteUser permanently removes a user account and everything tied to
	// it. Admin accounts and the calling admin's own account are refused.
	DeleteUser(ctx context.Context, actorID, id uuid.UUID) error
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService wires a users service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Me(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.ensureUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*UserDTO, error) {
	username := strings.TrimSpace(req.Username)
	if len(username) < minUsernameLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username must be at least 3 characters")
	}

	user, err := s.ensureUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Username == username {
		return FromModel(user), nil
	}

	taken, err := s.repo.FindByUsername(ctx, username)
	if err == nil && taken.ID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "username already taken")
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check username")
	}

	if err := s.repo.UpdateUsername(ctx, userID, username); err != nil {
		if db.IsUniqueViolation(err, "ux_users_username") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "username already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update username")
	}

	user.Username = username
	return FromModel(user), nil
}

func (s *service) ListUsers(ctx context.Context, query UserListQuery) (*UserList, error) {
	list, err := s.repo.ListUsers(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list users")
	}
	return list, nil
}

func (s *service) GetUser(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.ensureUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) BanUser(ctx context.Context, id uuid.UUID) error {
	return s.setBanned(ctx, id, true)
}

func (s *service) UnbanUser(ctx context.Context, id uuid.UUID) error {
	return s.setBanned(ctx, id, false)
}

func (s *service) setBanned(ctx context.Context, id uuid.UUID, banned bool) error {
	ok, err := s.repo.SetBanned(ctx, id, banned)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update ban flag")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return nil
}

func (s *service) DeleteUser(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == id {
		return pkgerrors.New(pkgerrors.CodeConflict, "cannot delete your own account")
	}

	user, err := s.ensureUser(ctx, id)
	if err != nil {
		return err
	}
	if user.Role == enums.UserRoleAdmin {
		return pkgerrors.New(pkgerrors.CodeConflict, "cannot delete an admin account")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).DeleteCascade(ctx, id)
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
	}
	return nil
}

func (s *service) ensureUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find user")
	}
	return user, nil
}
