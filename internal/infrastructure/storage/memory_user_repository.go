package storage

import (
	"context"
	"sync"

	"safety-card-bot/internal/domain/entity"
	"safety-card-bot/internal/domain/port"
)

// MemoryUserRepository in-memory хранилище операторов.
// Наружу отдаются копии, чтобы обработчики не делили один *entity.User.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[int64]entity.User
}

// NewMemoryUserRepository создаёт новое in-memory хранилище
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[int64]entity.User),
	}
}

// Get возвращает пользователя по ID, создаёт нового если не найден
func (r *MemoryUserRepository) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	r.mu.RLock()
	user, exists := r.users[userID]
	r.mu.RUnlock()

	if exists {
		return cloneUser(user), nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Пока ждали блокировку, пользователя мог создать другой обработчик.
	if user, exists := r.users[userID]; exists {
		return cloneUser(user), nil
	}
	newUser := entity.NewUser(userID, chatID)
	r.users[userID] = *cloneUser(*newUser)

	return newUser, nil
}

// Save сохраняет состояние пользователя
func (r *MemoryUserRepository) Save(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	r.users[user.ID] = *cloneUser(*user)
	r.mu.Unlock()

	return nil
}

// UpdateState обновляет состояние пользователя
func (r *MemoryUserRepository) UpdateState(ctx context.Context, userID int64, state entity.UserState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user, exists := r.users[userID]; exists {
		user.SetState(state)
		r.users[userID] = user
	}

	return nil
}

func cloneUser(u entity.User) *entity.User {
	u.Sections = append([]entity.Group(nil), u.Sections...)
	return &u
}

// Проверка реализации интерфейса
var _ port.UserRepository = (*MemoryUserRepository)(nil)
