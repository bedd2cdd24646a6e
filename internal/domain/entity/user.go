package entity

// UserState состояние пользователя в диалоге
type UserState string

const (
	StateMainMenu       UserState = "main_menu"       // В главном меню
	StateAwaitingPhoto  UserState = "awaiting_photo"  // Ожидание фото рабочей зоны
	StateProcessing     UserState = "processing"      // Обработка изображения
	StateAwaitingReport UserState = "awaiting_report" // Черновик готов, ждём /report
)

// User представляет оператора (офицера по охране труда)
type User struct {
	ID         int64     // Telegram User ID
	ChatID     int64     // Telegram Chat ID
	State      UserState // Текущее состояние пользователя
	Sections   []Group   // Выбранные разделы чек-листа
	Location   string    // Площадка наблюдения
	Supervisor string    // Имя руководителя в отчёте
}

// NewUser создаёт нового пользователя с начальным состоянием
func NewUser(userID, chatID int64) *User {
	return &User{
		ID:       userID,
		ChatID:   chatID,
		State:    StateMainMenu,
		Sections: AllGroups(),
	}
}

// SetState обновляет состояние пользователя
func (u *User) SetState(state UserState) {
	u.State = state
}

// SetSections заменяет выбранные разделы копией переданного списка.
func (u *User) SetSections(groups []Group) {
	u.Sections = append([]Group(nil), groups...)
}
