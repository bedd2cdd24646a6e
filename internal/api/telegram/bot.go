package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "safety-card-bot/internal/application"
	"safety-card-bot/internal/container"
	"safety-card-bot/internal/domain/checklist"
	"safety-card-bot/internal/domain/entity"
)

// botAPI часть tgbotapi.BotAPI, которой пользуется бот
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFile(config tgbotapi.FileConfig) (tgbotapi.File, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot представляет Telegram-бота
type Bot struct {
	api          botAPI
	token        string
	users        *app.UserService
	observations *app.ObservationService
	fetch        func(ctx context.Context, url string) ([]byte, error)
	log          *slog.Logger
}

// NewBot создаёт нового бота
func NewBot(token string, services *container.Container, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}

	b := newBot(api, token, services, logger)
	b.log.Info("telegram authorized", "account", api.Self.UserName)
	return b, nil
}

func newBot(api botAPI, token string, services *container.Container, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		api:          api,
		token:        token,
		users:        services.UserService,
		observations: services.ObservationService,
		fetch:        httpFetch,
		log:          logger.With("component", "telegram"),
	}
}

// Run запускает основной цикл обработки сообщений до отмены ctx
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.From == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	user, err := b.users.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		b.log.Error("get user", "user_id", msg.From.ID, "err", err)
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg, user)
		return
	}

	// Обработка фото
	if len(msg.Photo) > 0 {
		b.handlePhoto(ctx, msg, user)
		return
	}

	// Текстовое сообщение (не команда)
	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		if err := b.observations.Discard(ctx, user.ID, chatID); err != nil {
			b.log.Error("reset user", "user_id", user.ID, "err", err)
		}
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "check":
		if _, err := b.users.BeginCheck(ctx, user.ID, chatID); err != nil {
			b.log.Error("begin check", "user_id", user.ID, "err", err)
			b.sendMessage(chatID, msgInternalError)
			return
		}
		b.sendMessage(chatID, fmt.Sprintf(msgAwaitingPhoto, formatSections(user.Sections)))

	case "sections":
		b.handleSections(ctx, chatID, user, args)

	case "location":
		if args == "" {
			b.sendMessage(chatID, fmt.Sprintf(msgLocationCurrent, orDefault(user.Location, app.DefaultLocation)))
			return
		}
		if _, err := b.users.SetLocation(ctx, user.ID, chatID, args); err != nil {
			b.log.Error("set location", "user_id", user.ID, "err", err)
			b.sendMessage(chatID, msgInternalError)
			return
		}
		b.sendMessage(chatID, fmt.Sprintf(msgLocationSet, args))

	case "supervisor":
		if args == "" {
			b.sendMessage(chatID, fmt.Sprintf(msgSupervisorCurrent, orDefault(user.Supervisor, "не указан")))
			return
		}
		if _, err := b.users.SetSupervisor(ctx, user.ID, chatID, args); err != nil {
			b.log.Error("set supervisor", "user_id", user.ID, "err", err)
			b.sendMessage(chatID, msgInternalError)
			return
		}
		b.sendMessage(chatID, fmt.Sprintf(msgSupervisorSet, args))

	case "date":
		b.handleDate(chatID, user, args)

	case "time":
		b.handleTime(chatID, user, args)

	case "note":
		b.handleNote(chatID, user, args)

	case "report":
		b.handleReport(ctx, chatID, user)

	case "cancel":
		if err := b.observations.Discard(ctx, user.ID, chatID); err != nil {
			b.log.Error("cancel", "user_id", user.ID, "err", err)
		}
		b.sendMessage(chatID, msgCancelled)

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

func (b *Bot) handleSections(ctx context.Context, chatID int64, user *entity.User, args string) {
	if args == "" {
		b.sendMessage(chatID, fmt.Sprintf(msgSectionsCurrent, formatSections(user.Sections)))
		return
	}

	updated, draft, err := b.observations.Reselect(ctx, user.ID, chatID, []string{args})
	if err != nil {
		if errors.Is(err, checklist.ErrUnknownGroup) {
			b.sendMessage(chatID, msgSectionsUnknown)
			return
		}
		b.log.Error("select sections", "user_id", user.ID, "err", err)
		b.sendMessage(chatID, msgInternalError)
		return
	}

	b.sendMessage(chatID, fmt.Sprintf(msgSectionsSet, formatSections(updated.Sections)))
	if draft != nil {
		b.sendMessage(chatID, formatDraft(draft))
	}
}

// handleDate задаёт дату следующего отчёта, "-" возвращает дату отправки
func (b *Bot) handleDate(chatID int64, user *entity.User, args string) {
	if args == "" {
		b.sendMessage(chatID, fmt.Sprintf(msgDateCurrent, orDefault(b.observations.Pending(user.ID).Date, "дата отправки")))
		return
	}
	if args == resetArg {
		args = ""
	}

	date, err := b.observations.SetReportDate(user.ID, args)
	if err != nil {
		b.sendMessage(chatID, msgDateInvalid)
		return
	}
	b.sendMessage(chatID, fmt.Sprintf(msgDateSet, orDefault(date, "дата отправки")))
}

// handleTime задаёт время следующего отчёта, "-" возвращает время отправки
func (b *Bot) handleTime(chatID int64, user *entity.User, args string) {
	if args == "" {
		b.sendMessage(chatID, fmt.Sprintf(msgTimeCurrent, orDefault(b.observations.Pending(user.ID).Time, "время отправки")))
		return
	}
	if args == resetArg {
		args = ""
	}

	clock, err := b.observations.SetReportTime(user.ID, args)
	if err != nil {
		b.sendMessage(chatID, msgTimeInvalid)
		return
	}
	b.sendMessage(chatID, fmt.Sprintf(msgTimeSet, orDefault(clock, "время отправки")))
}

// handleNote заменяет раздел описания текстом оператора; без текста раздел снова заполняется автоматически
func (b *Bot) handleNote(chatID int64, user *entity.User, args string) {
	section, text, _ := strings.Cut(args, " ")
	if section == "" {
		b.sendMessage(chatID, msgNoteUsage)
		return
	}

	if err := b.observations.SetNote(user.ID, section, text); err != nil {
		b.sendMessage(chatID, msgNoteUsage)
		return
	}
	if strings.TrimSpace(text) == "" {
		b.sendMessage(chatID, fmt.Sprintf(msgNoteCleared, section))
		return
	}
	b.sendMessage(chatID, fmt.Sprintf(msgNoteSet, section))
}

// handlePhoto обрабатывает входящее фото
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	chatID := msg.Chat.ID

	switch user.State {
	case entity.StateAwaitingPhoto, entity.StateAwaitingReport:
	case entity.StateProcessing:
		b.sendMessage(chatID, msgBusy)
		return
	default:
		b.sendMessage(chatID, msgCheckFirst)
		return
	}

	b.sendMessage(chatID, msgProcessing)

	// Получаем файл с максимальным разрешением
	photo := msg.Photo[len(msg.Photo)-1]

	imageData, err := b.downloadFile(ctx, photo.FileID)
	if err != nil {
		b.log.Error("download photo", "user_id", user.ID, "err", err)
		b.sendMessage(chatID, msgProcessingError)
		return
	}

	draft, err := b.observations.Analyze(ctx, user.ID, chatID, imageData)
	if err != nil {
		b.log.Error("analyse photo", "user_id", user.ID, "bytes", len(imageData), "err", err)
		b.sendMessage(chatID, msgProcessingError)
		return
	}

	summary := formatDraft(draft)
	if len(draft.Annotated) == 0 {
		b.sendMessage(chatID, summary)
		return
	}

	photoMsg := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "annotated.jpg", Bytes: draft.Annotated})
	photoMsg.Caption = summary
	if _, err := b.api.Send(photoMsg); err != nil {
		b.log.Error("send photo", "chat_id", chatID, "err", err)
		b.sendMessage(chatID, summary)
	}
}

func (b *Bot) handleReport(ctx context.Context, chatID int64, user *entity.User) {
	b.sendMessage(chatID, msgRendering)

	stored, err := b.observations.Submit(ctx, user.ID, chatID, app.SubmitInput{})
	if err != nil {
		if errors.Is(err, app.ErrNoDraft) {
			b.sendMessage(chatID, msgNoDraft)
			return
		}
		b.log.Error("submit observation", "user_id", user.ID, "err", err)
		b.sendMessage(chatID, msgReportError)
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(stored.Report.Path))
	doc.Caption = fmt.Sprintf(msgReportCaption, stored.Observation.ID, stored.Observation.Date, stored.Observation.Time, stored.Observation.Location)
	if _, err := b.api.Send(doc); err != nil {
		b.log.Error("send report", "chat_id", chatID, "observation_id", stored.Observation.ID, "err", err)
		b.sendMessage(chatID, msgReportError)
	}
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	return b.fetch(ctx, file.Link(b.token))
}

func httpFetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "err", err)
	}
}
