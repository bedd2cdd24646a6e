package telegram

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	app "safety-card-bot/internal/application"
	"safety-card-bot/internal/container"
	"safety-card-bot/internal/domain/entity"
	"safety-card-bot/internal/infrastructure/report"
	"safety-card-bot/internal/infrastructure/storage"
	"safety-card-bot/internal/infrastructure/storage/sqlite"
)

type fakeAPI struct {
	sent    []tgbotapi.Chattable
	updates chan tgbotapi.Update
	stopped bool
}

func (a *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	a.sent = append(a.sent, c)
	return tgbotapi.Message{}, nil
}

func (a *fakeAPI) GetFile(cfg tgbotapi.FileConfig) (tgbotapi.File, error) {
	return tgbotapi.File{FileID: cfg.FileID, FilePath: "photos/" + cfg.FileID + ".jpg"}, nil
}

func (a *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return a.updates
}

func (a *fakeAPI) StopReceivingUpdates() { a.stopped = true }

func (a *fakeAPI) texts() []string {
	var out []string
	for _, c := range a.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m.Text)
		}
	}
	return out
}

func (a *fakeAPI) lastText(t *testing.T) string {
	t.Helper()
	texts := a.texts()
	require.NotEmpty(t, texts)
	return texts[len(texts)-1]
}

type fakeDetector struct {
	labels []string
}

func (d *fakeDetector) Detect(_ context.Context, _ []byte) (*entity.DetectionResult, error) {
	res := &entity.DetectionResult{ImageWidth: 640, ImageHeight: 480}
	for _, l := range d.labels {
		res.Detections = append(res.Detections, entity.Detection{Label: l, Confidence: 0.8})
	}
	return res, nil
}

func (d *fakeDetector) Annotate(_ []byte, _ *entity.DetectionResult) ([]byte, error) {
	return []byte("annotated"), nil
}

func (d *fakeDetector) Classes() []string { return d.labels }

func newTestBot(t *testing.T, labels ...string) (*Bot, *fakeAPI, *container.Container) {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	db, err := sqlite.Open(ctx, filepath.Join(dir, "observations.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlite.NewMigrator(db).Up(ctx))

	services := container.New(container.Deps{
		Users:        storage.NewMemoryUserRepository(),
		Observations: sqlite.NewStore(db),
		Detector:     &fakeDetector{labels: labels},
		Renderer:     report.NewPDFRenderer(filepath.Join(dir, "reports"), ""),
	})

	api := &fakeAPI{updates: make(chan tgbotapi.Update, 4)}
	bot := newBot(api, "token", services, nil)
	bot.fetch = func(_ context.Context, url string) ([]byte, error) {
		require.Contains(t, url, "photos/")
		return []byte("jpeg"), nil
	}
	return bot, api, services
}

func command(text string) *tgbotapi.Message {
	name := strings.SplitN(text, " ", 2)[0]
	return &tgbotapi.Message{
		From:     &tgbotapi.User{ID: 1},
		Chat:     &tgbotapi.Chat{ID: 10},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}
}

func photo() *tgbotapi.Message {
	return &tgbotapi.Message{
		From:  &tgbotapi.User{ID: 1},
		Chat:  &tgbotapi.Chat{ID: 10},
		Photo: []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "large"}},
	}
}

func TestBot_CheckPhotoReport(t *testing.T) {
	bot, api, services := newTestBot(t, "hairnet", "gloves")
	ctx := context.Background()

	bot.handleMessage(ctx, command("/check"))
	require.Contains(t, api.lastText(t), "Отправьте фото")

	user, err := services.UserService.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingPhoto, user.State)

	bot.handleMessage(ctx, photo())

	var photoMsg *tgbotapi.PhotoConfig
	for _, c := range api.sent {
		if p, ok := c.(tgbotapi.PhotoConfig); ok {
			photoMsg = &p
		}
	}
	require.NotNil(t, photoMsg)
	require.Contains(t, photoMsg.Caption, "Head Protection (Hairnet): ✅ Safe")
	require.Contains(t, photoMsg.Caption, "Foot Protection (Shoes): ❌ Unsafe")

	bot.handleMessage(ctx, command("/location Line 4"))
	require.Contains(t, api.lastText(t), "Line 4")

	bot.handleMessage(ctx, command("/report"))

	var doc *tgbotapi.DocumentConfig
	for _, c := range api.sent {
		if d, ok := c.(tgbotapi.DocumentConfig); ok {
			doc = &d
		}
	}
	require.NotNil(t, doc)
	path, ok := doc.File.(tgbotapi.FilePath)
	require.True(t, ok)
	require.FileExists(t, string(path))
	require.Contains(t, doc.Caption, "Line 4")

	list, err := services.ObservationService.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Line 4", list[0].Observation.Location)
}

func TestBot_PhotoWithoutCheck(t *testing.T) {
	bot, api, _ := newTestBot(t, "hairnet")

	bot.handleMessage(context.Background(), photo())
	require.Equal(t, msgCheckFirst, api.lastText(t))
}

func TestBot_ReportWithoutDraft(t *testing.T) {
	bot, api, _ := newTestBot(t)

	bot.handleMessage(context.Background(), command("/report"))
	require.Equal(t, msgNoDraft, api.lastText(t))
}

func TestBot_Sections(t *testing.T) {
	bot, api, services := newTestBot(t, "mask")
	ctx := context.Background()

	bot.handleMessage(ctx, command("/sections Face, Hand"))
	require.Equal(t, "✅ Разделы: Face, Hand", api.lastText(t))

	user, err := services.UserService.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, []entity.Group{entity.GroupFace, entity.GroupHand}, user.Sections)

	bot.handleMessage(ctx, command("/sections Knee"))
	require.Equal(t, msgSectionsUnknown, api.lastText(t))

	bot.handleMessage(ctx, command("/sections"))
	require.Contains(t, api.lastText(t), "Face, Hand")
}

func TestBot_SectionsRecomputesDraft(t *testing.T) {
	bot, api, _ := newTestBot(t, "mask")
	ctx := context.Background()

	bot.handleMessage(ctx, command("/check"))
	bot.handleMessage(ctx, photo())
	bot.handleMessage(ctx, command("/sections Face"))

	last := api.lastText(t)
	require.Contains(t, last, "Face Protection (Mask): ✅ Safe")
	require.Contains(t, last, "Head Protection (Hairnet): ➖ N/A")
}

func TestBot_CancelAndUnknown(t *testing.T) {
	bot, api, services := newTestBot(t)
	ctx := context.Background()

	bot.handleMessage(ctx, command("/check"))
	bot.handleMessage(ctx, command("/cancel"))
	require.Equal(t, msgCancelled, api.lastText(t))

	user, err := services.UserService.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)

	bot.handleMessage(ctx, command("/foo"))
	require.Equal(t, msgUnknownCommand, api.lastText(t))

	bot.handleMessage(ctx, &tgbotapi.Message{From: &tgbotapi.User{ID: 1}, Chat: &tgbotapi.Chat{ID: 10}, Text: "hello"})
	require.Equal(t, msgSendPhoto, api.lastText(t))
}

func TestBot_RunStopsWhenUpdatesClosed(t *testing.T) {
	bot, api, _ := newTestBot(t)

	api.updates <- tgbotapi.Update{Message: command("/help")}
	api.updates <- tgbotapi.Update{}
	close(api.updates)

	require.NoError(t, bot.Run(context.Background()))
	require.True(t, api.stopped)
	require.Equal(t, []string{msgHelp}, api.texts())
}

func TestBot_DateTimeAndNotesFillReport(t *testing.T) {
	bot, api, services := newTestBot(t, "gloves")
	ctx := context.Background()

	bot.handleMessage(ctx, command("/date 2024-06-03"))
	require.Equal(t, "📅 Дата отчёта: 2024-06-03", api.lastText(t))

	bot.handleMessage(ctx, command("/time 7:15 am"))
	require.Equal(t, "🕘 Время отчёта: 07:15 AM", api.lastText(t))

	bot.handleMessage(ctx, command("/note near_misses Cable across the walkway."))
	require.Equal(t, fmt.Sprintf(msgNoteSet, "near_misses"), api.lastText(t))

	bot.handleMessage(ctx, command("/check"))
	bot.handleMessage(ctx, photo())
	bot.handleMessage(ctx, command("/report"))

	list, err := services.ObservationService.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)

	obs := list[0].Observation
	require.Equal(t, "2024-06-03", obs.Date)
	require.Equal(t, "07:15 AM", obs.Time)
	require.Equal(t, "Cable across the walkway.", obs.Narrative.NearMisses)

	// после отчёта значения сброшены
	bot.handleMessage(ctx, command("/date"))
	require.Contains(t, api.lastText(t), "дата отправки")
}

func TestBot_DateTimeAndNotesValidation(t *testing.T) {
	bot, api, services := newTestBot(t)
	ctx := context.Background()

	bot.handleMessage(ctx, command("/date 01.05.2024"))
	require.Equal(t, msgDateInvalid, api.lastText(t))

	bot.handleMessage(ctx, command("/time noon"))
	require.Equal(t, msgTimeInvalid, api.lastText(t))

	bot.handleMessage(ctx, command("/note"))
	require.Equal(t, msgNoteUsage, api.lastText(t))

	bot.handleMessage(ctx, command("/note summary text"))
	require.Equal(t, msgNoteUsage, api.lastText(t))

	bot.handleMessage(ctx, command("/time 09:30 AM"))
	bot.handleMessage(ctx, command("/time -"))
	require.Equal(t, "🕘 Время отчёта: время отправки", api.lastText(t))

	bot.handleMessage(ctx, command("/note interventions Gloves issued on site."))
	bot.handleMessage(ctx, command("/note interventions"))
	require.Equal(t, fmt.Sprintf(msgNoteCleared, "interventions"), api.lastText(t))

	require.Equal(t, app.SubmitInput{}, services.ObservationService.Pending(1))
}
