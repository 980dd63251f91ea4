package application

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/dresscode/internal/domain/entity"
	repo "github.com/oksasatya/dresscode/internal/domain/repository"
	"github.com/oksasatya/dresscode/pkg/helpers"
)

var ErrUserNotFound = errors.New("user not found")

// UserService exposes the stored registrations to the admin surface.
type UserService struct {
	Repo   repo.UserRepository
	Logger *logrus.Logger
}

func NewUserService(r repo.UserRepository, logger *logrus.Logger) *UserService {
	if logger == nil {
		logger = helpers.NopLogger()
	}
	return &UserService{Repo: r, Logger: logger}
}

func profiles(users []*entity.User) []entity.Profile {
	out := make([]entity.Profile, 0, len(users))
	for _, u := range users {
		out = append(out, u.Profile())
	}
	return out
}

func (s *UserService) List(ctx context.Context) ([]entity.Profile, error) {
	users, err := s.Repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return profiles(users), nil
}

func (s *UserService) Search(ctx context.Context, c repo.Criteria) ([]entity.Profile, error) {
	users, err := s.Repo.Search(ctx, c)
	if err != nil {
		return nil, err
	}
	return profiles(users), nil
}

func (s *UserService) Get(ctx context.Context, id string) (*entity.Profile, error) {
	u, err := s.Repo.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	p := u.Profile()
	return &p, nil
}

// Update merges patch into the stored record and saves it through the same
// validation and uniqueness rules as a new registration.
func (s *UserService) Update(ctx context.Context, id string, patch entity.UserPatch) (*entity.Profile, error) {
	u, err := s.Repo.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Update(patch)
	if err := s.Repo.Save(ctx, u); err != nil {
		return nil, err
	}
	s.Logger.WithField("user_id", id).Info("user profile updated")
	p := u.Profile()
	return &p, nil
}

func (s *UserService) Remove(ctx context.Context, id string) error {
	err := s.Repo.Remove(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrUserNotFound
	}
	if err == nil {
		s.Logger.WithField("user_id", id).Info("user removed")
	}
	return err
}

func (s *UserService) Statistics(ctx context.Context) (repo.Statistics, error) {
	return s.Repo.Statistics(ctx)
}

func (s *UserService) Export(ctx context.Context, includePrivate bool) (repo.ExportDocument, error) {
	return s.Repo.Export(ctx, includePrivate)
}

func (s *UserService) Import(ctx context.Context, data []byte, replace bool) (repo.ImportResult, error) {
	return s.Repo.Import(ctx, data, replace)
}

func (s *UserService) Storage(ctx context.Context) (repo.StorageInfo, error) {
	return s.Repo.StorageInfo(ctx)
}
