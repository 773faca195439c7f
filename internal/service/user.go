package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"

	"userdesk/m/domain"
	"userdesk/m/internal/store"
)

// UserRepository is the persistence contract the service needs.
type UserRepository interface {
	List(ctx context.Context) ([]domain.User, error)
	Get(ctx context.Context, id int64) (*domain.User, error)
	Insert(ctx context.Context, name, email string, avatar *string) (*domain.User, error)
	Update(ctx context.Context, id int64, name, email string, avatar *string) (*domain.User, *string, error)
	Delete(ctx context.Context, id int64) (*string, error)
	Growth(ctx context.Context) ([]domain.GrowthPoint, error)
}

// FileStore persists avatar uploads.
type FileStore interface {
	Save(fh *multipart.FileHeader) (string, error)
	Remove(publicPath string) error
}

// UserInput carries the fields of a create or update request. Avatar is nil
// when no file was attached.
type UserInput struct {
	Name   string
	Email  string
	Avatar *multipart.FileHeader
}

// UserService implements user CRUD on top of a repository and a file store.
type UserService struct {
	repo   UserRepository
	files  FileStore
	logger *slog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(repo UserRepository, files FileStore, logger *slog.Logger) *UserService {
	return &UserService{repo: repo, files: files, logger: logger}
}

// List returns all users.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list users", slog.String("error", err.Error()))
		return nil, &FailureError{Message: MsgListFailed, Err: err}
	}
	return users, nil
}

// Get returns one user or ErrNotFound.
func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.repo.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to get user", slog.Int64("id", id), slog.String("error", err.Error()))
		return nil, &FailureError{Message: MsgGetFailed, Err: err}
	}
	return user, nil
}

// Create stores the avatar (if any), then inserts the row. When the insert
// fails the stored avatar is removed again.
func (s *UserService) Create(ctx context.Context, in UserInput) (*domain.User, error) {
	avatar, err := s.saveAvatar(in.Avatar)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to store avatar", slog.String("error", err.Error()))
		return nil, &FailureError{Message: MsgCreateFailed, Err: err}
	}

	user, err := s.repo.Insert(ctx, in.Name, in.Email, avatar)
	if err != nil {
		s.discard(ctx, avatar)
		if store.IsUniqueViolation(err, "email") {
			return nil, &ConflictError{Message: MsgCreateConflict}
		}
		s.logger.ErrorContext(ctx, "failed to create user", slog.String("error", err.Error()))
		return nil, &FailureError{Message: MsgCreateFailed, Err: err}
	}
	return user, nil
}

// Update rewrites name and email, and the avatar only when a new file is
// supplied. The replaced avatar file is removed after a successful write;
// the new file is removed when the write fails.
func (s *UserService) Update(ctx context.Context, id int64, in UserInput) (*domain.User, error) {
	avatar, err := s.saveAvatar(in.Avatar)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to store avatar", slog.String("error", err.Error()))
		return nil, &FailureError{Message: MsgUpdateFailed, Err: err}
	}

	user, previous, err := s.repo.Update(ctx, id, in.Name, in.Email, avatar)
	if err != nil {
		s.discard(ctx, avatar)
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, ErrNotFound
		case store.IsUniqueViolation(err, "email"):
			return nil, &ConflictError{Message: MsgUpdateConflict}
		}
		s.logger.ErrorContext(ctx, "failed to update user", slog.Int64("id", id), slog.String("error", err.Error()))
		return nil, &FailureError{Message: MsgUpdateFailed, Err: err}
	}

	if avatar != nil && previous != nil && *previous != *avatar {
		s.discard(ctx, previous)
	}
	return user, nil
}

// Delete removes the user and its avatar file. A missing id is a no-op.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	avatar, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to delete user", slog.Int64("id", id), slog.String("error", err.Error()))
		return &FailureError{Message: err.Error(), Err: err}
	}
	s.discard(ctx, avatar)
	return nil
}

// Growth returns per-date registration counts, oldest first.
func (s *UserService) Growth(ctx context.Context) ([]domain.GrowthPoint, error) {
	points, err := s.repo.Growth(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to compute growth", slog.String("error", err.Error()))
		return nil, &FailureError{Message: MsgGrowthFailed, Err: err}
	}
	return points, nil
}

func (s *UserService) saveAvatar(fh *multipart.FileHeader) (*string, error) {
	if fh == nil {
		return nil, nil
	}
	path, err := s.files.Save(fh)
	if err != nil {
		return nil, fmt.Errorf("save avatar: %w", err)
	}
	return &path, nil
}

// discard removes an avatar file that no row references anymore. Failures
// are logged only; the request outcome does not depend on them.
func (s *UserService) discard(ctx context.Context, path *string) {
	if path == nil || *path == "" {
		return
	}
	if err := s.files.Remove(*path); err != nil {
		s.logger.WarnContext(ctx, "failed to remove avatar file",
			slog.String("path", *path),
			slog.String("error", err.Error()),
		)
	}
}
