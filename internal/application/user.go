package app

import (
	"context"
	"strings"

	"safety-card-bot/internal/domain/checklist"
	"safety-card-bot/internal/domain/entity"
	"safety-card-bot/internal/domain/port"
)

type UserService struct {
	repo port.UserRepository
}

func NewUserService(repo port.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Get(ctx, userID, chatID)
}

func (s *UserService) SetState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	// Get создаёт пользователя, если его ещё нет; UpdateState новых не заводит
	if _, err := s.repo.Get(ctx, userID, chatID); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateState(ctx, userID, state); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID, chatID)
}

func (s *UserService) BeginCheck(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingPhoto)
}

func (s *UserService) Cancel(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateMainMenu)
}

// SelectSections разбирает выбор разделов и сохраняет его у пользователя.
func (s *UserService) SelectSections(ctx context.Context, userID, chatID int64, names []string) (*entity.User, error) {
	groups, err := checklist.ParseGroups(names)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, userID, chatID, func(u *entity.User) {
		u.SetSections(groups)
	})
}

// SetLocation запоминает площадку для следующих отчётов.
func (s *UserService) SetLocation(ctx context.Context, userID, chatID int64, location string) (*entity.User, error) {
	return s.update(ctx, userID, chatID, func(u *entity.User) {
		u.Location = strings.TrimSpace(location)
	})
}

// SetSupervisor запоминает имя руководителя для следующих отчётов.
func (s *UserService) SetSupervisor(ctx context.Context, userID, chatID int64, name string) (*entity.User, error) {
	return s.update(ctx, userID, chatID, func(u *entity.User) {
		u.Supervisor = strings.TrimSpace(name)
	})
}

func (s *UserService) update(ctx context.Context, userID, chatID int64, apply func(*entity.User)) (*entity.User, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	apply(user)
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}
