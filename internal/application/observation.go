package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"safety-card-bot/internal/domain/checklist"
	"safety-card-bot/internal/domain/entity"
	"safety-card-bot/internal/domain/port"
	"safety-card-bot/internal/platform/id"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "03:04 PM"

	DefaultLocation = "Site A"
)

var (
	// ErrNoDraft у пользователя нет проанализированного фото
	ErrNoDraft = errors.New("no analysed photo to report on")
	// ErrDetectorNotConfigured сервис создан без детектора
	ErrDetectorNotConfigured = errors.New("detector is not configured")
	// ErrEmptyImage прислан пустой файл
	ErrEmptyImage = errors.New("image is empty")
	// ErrInvalidDate дата не в формате YYYY-MM-DD
	ErrInvalidDate = errors.New("invalid report date")
	// ErrInvalidTime время не в формате hh:mm AM/PM
	ErrInvalidTime = errors.New("invalid report time")
	// ErrUnknownNote неизвестный раздел описания
	ErrUnknownNote = errors.New("unknown narrative section")
)

// timeLayouts допустимые форматы времени от оператора; в отчёт идёт TimeLayout.
var timeLayouts = []string{TimeLayout, "3:04 PM", "3:04PM", "15:04"}

// Draft результат анализа фото до оформления отчёта.
// Черновик не изменяется: каждый пересчёт создаёт новое значение.
type Draft struct {
	Labels     []string
	Detection  *entity.DetectionResult
	Image      []byte
	Annotated  []byte
	Sections   []entity.Group
	Checklist  []entity.ChecklistEntry
	Narrative  entity.Narrative
	AnalysedAt time.Time

	rev uint64
}

// NarrativeOverride ручные тексты разделов; пустое поле оставляет сгенерированный текст.
type NarrativeOverride struct {
	Description        string
	Interventions      string
	PositiveBehaviours string
	NearMisses         string
}

// SubmitInput поля шапки отчёта; пустые значения берутся из профиля или по умолчанию.
type SubmitInput struct {
	Date       string
	Time       string
	Location   string
	Supervisor string
	Override   NarrativeOverride
}

// CreateInput разовый запрос на отчёт (HTTP).
type CreateInput struct {
	Image    []byte
	Sections []string
	SubmitInput
}

// ObservationOptions настройки сервиса наблюдений.
type ObservationOptions struct {
	DefaultLocation   string
	DefaultSupervisor string
	Now               func() time.Time
	Logger            *slog.Logger
}

type ObservationService struct {
	users    *UserService
	detector port.PPEDetector
	catalog  *checklist.Catalog
	renderer port.ReportRenderer
	repo     port.ObservationRepository
	archiver port.ReportArchiver
	observer port.Observer

	defaultLocation   string
	defaultSupervisor string
	now               func() time.Time
	log               *slog.Logger

	drafts  map[int64]Draft
	pending map[int64]SubmitInput
	revs    atomic.Uint64
	mu      sync.RWMutex
}

// NewObservationService создаёт сервис, который ведёт фото от анализа до готового отчёта.
// archiver и observer могут быть nil.
func NewObservationService(
	users *UserService,
	detector port.PPEDetector,
	catalog *checklist.Catalog,
	renderer port.ReportRenderer,
	repo port.ObservationRepository,
	archiver port.ReportArchiver,
	observer port.Observer,
	opts ObservationOptions,
) *ObservationService {
	if catalog == nil {
		catalog = checklist.DefaultCatalog()
	}
	if observer == nil {
		observer = noopObserver{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if strings.TrimSpace(opts.DefaultLocation) == "" {
		opts.DefaultLocation = DefaultLocation
	}

	return &ObservationService{
		users:             users,
		detector:          detector,
		catalog:           catalog,
		renderer:          renderer,
		repo:              repo,
		archiver:          archiver,
		observer:          observer,
		defaultLocation:   opts.DefaultLocation,
		defaultSupervisor: opts.DefaultSupervisor,
		now:               opts.Now,
		log:               opts.Logger,
		drafts:            make(map[int64]Draft),
		pending:           make(map[int64]SubmitInput),
	}
}

// Catalog возвращает каталог категорий, по которому строится чек-лист.
func (s *ObservationService) Catalog() *checklist.Catalog {
	return s.catalog
}

// Analyze распознаёт СИЗ на фото и сохраняет черновик для выбранных пользователем разделов.
// При ошибке детектора прежний черновик не трогаем.
func (s *ObservationService) Analyze(ctx context.Context, userID, chatID int64, image []byte) (*Draft, error) {
	user, err := s.users.SetState(ctx, userID, chatID, entity.StateProcessing)
	if err != nil {
		return nil, err
	}

	result, annotated, err := s.detect(ctx, image)
	if err != nil {
		// возвращаем пользователя к ожиданию фото, чтобы можно было прислать другое
		if _, stateErr := s.users.SetState(ctx, userID, chatID, entity.StateAwaitingPhoto); stateErr != nil {
			s.log.Warn("restore state failed", "user_id", userID, "err", stateErr)
		}
		return nil, err
	}

	draft := s.draft(result.Labels(), user.Sections)
	draft.Detection = result
	draft.Image = image
	draft.Annotated = annotated

	s.mu.Lock()
	s.drafts[userID] = draft
	s.mu.Unlock()

	if _, err := s.users.SetState(ctx, userID, chatID, entity.StateAwaitingReport); err != nil {
		return nil, err
	}

	s.log.Info("photo analysed",
		"user_id", userID,
		"labels", draft.Labels,
		"detections", len(result.Detections),
	)
	return &draft, nil
}

// Reselect меняет разделы пользователя и пересчитывает черновик, если он есть.
func (s *ObservationService) Reselect(ctx context.Context, userID, chatID int64, names []string) (*entity.User, *Draft, error) {
	user, err := s.users.SelectSections(ctx, userID, chatID, names)
	if err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.drafts[userID]
	if !ok {
		return user, nil, nil
	}

	next := s.draft(prev.Labels, user.Sections)
	next.Detection = prev.Detection
	next.Image = prev.Image
	next.Annotated = prev.Annotated
	s.drafts[userID] = next

	return user, &next, nil
}

// Draft возвращает текущий черновик пользователя.
func (s *ObservationService) Draft(userID int64) (*Draft, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.drafts[userID]
	if !ok {
		return nil, false
	}
	return &d, true
}

// Discard удаляет черновик и возвращает пользователя в главное меню.
func (s *ObservationService) Discard(ctx context.Context, userID, chatID int64) error {
	s.mu.Lock()
	delete(s.drafts, userID)
	delete(s.pending, userID)
	s.mu.Unlock()

	_, err := s.users.Cancel(ctx, userID, chatID)
	return err
}

// Pending возвращает поля отчёта, заданные пользователем до Submit.
func (s *ObservationService) Pending(userID int64) SubmitInput {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending[userID]
}

// SetReportDate запоминает дату следующего отчёта; пустая строка возвращает текущую дату.
func (s *ObservationService) SetReportDate(userID int64, date string) (string, error) {
	date = strings.TrimSpace(date)
	if date != "" {
		d, err := time.Parse(DateLayout, date)
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrInvalidDate, date)
		}
		date = d.Format(DateLayout)
	}

	s.setPending(userID, func(in *SubmitInput) { in.Date = date })
	return date, nil
}

// SetReportTime запоминает время следующего отчёта в формате TimeLayout.
func (s *ObservationService) SetReportTime(userID int64, clock string) (string, error) {
	clock = strings.ToUpper(strings.TrimSpace(clock))
	if clock != "" {
		parsed, ok := parseClock(clock)
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrInvalidTime, clock)
		}
		clock = parsed.Format(TimeLayout)
	}

	s.setPending(userID, func(in *SubmitInput) { in.Time = clock })
	return clock, nil
}

// SetNote заменяет раздел описания ручным текстом; пустой текст возвращает сгенерированный.
func (s *ObservationService) SetNote(userID int64, section, text string) error {
	text = strings.TrimSpace(text)

	var set func(*NarrativeOverride)
	switch strings.ToLower(strings.TrimSpace(section)) {
	case "description":
		set = func(o *NarrativeOverride) { o.Description = text }
	case "interventions":
		set = func(o *NarrativeOverride) { o.Interventions = text }
	case "positive", "positive_behaviours":
		set = func(o *NarrativeOverride) { o.PositiveBehaviours = text }
	case "near_misses", "nearmisses", "near-misses":
		set = func(o *NarrativeOverride) { o.NearMisses = text }
	default:
		return fmt.Errorf("%w: %q", ErrUnknownNote, section)
	}

	s.setPending(userID, func(in *SubmitInput) { set(&in.Override) })
	return nil
}

func (s *ObservationService) setPending(userID int64, apply func(*SubmitInput)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	in := s.pending[userID]
	apply(&in)
	if in == (SubmitInput{}) {
		delete(s.pending, userID)
		return
	}
	s.pending[userID] = in
}

func parseClock(v string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Submit оформляет черновик в запись, рисует отчёт и сохраняет его.
// Пустые поля in берутся из заданных ранее SetReportDate, SetReportTime и SetNote.
// При ошибке рендера или хранилища черновик остаётся для повторной попытки.
func (s *ObservationService) Submit(ctx context.Context, userID, chatID int64, in SubmitInput) (*entity.StoredObservation, error) {
	s.mu.RLock()
	draft, ok := s.drafts[userID]
	pending := s.pending[userID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNoDraft
	}
	in = in.orElse(pending)

	user, err := s.users.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	if in.Location == "" {
		in.Location = user.Location
	}
	if in.Supervisor == "" {
		in.Supervisor = user.Supervisor
	}

	stored, err := s.finalize(ctx, draft, in)
	if err != nil {
		return nil, err
	}

	// пока рисовался отчёт, черновик могли заменить; новый не трогаем
	s.mu.Lock()
	current, same := s.drafts[userID]
	same = same && current.rev == draft.rev
	if same {
		delete(s.drafts, userID)
	}
	if s.pending[userID] == pending {
		delete(s.pending, userID)
	}
	s.mu.Unlock()

	if same {
		if _, err := s.users.SetState(ctx, userID, chatID, entity.StateMainMenu); err != nil {
			s.log.Warn("reset state failed", "user_id", userID, "err", err)
		}
	}

	return stored, nil
}

// Preview строит чек-лист и описание по готовым меткам без обращения к детектору и хранилищу.
func (s *ObservationService) Preview(labels, sections []string) ([]entity.ChecklistEntry, entity.Narrative, error) {
	groups, err := s.sections(sections)
	if err != nil {
		return nil, entity.Narrative{}, err
	}

	entries := s.catalog.Build(labels, groups)
	return entries, checklist.BuildNarrative(entries), nil
}

// Create выполняет весь путь за один вызов: фото, чек-лист, описание, отчёт.
func (s *ObservationService) Create(ctx context.Context, in CreateInput) (*entity.StoredObservation, error) {
	groups, err := s.sections(in.Sections)
	if err != nil {
		return nil, err
	}

	result, annotated, err := s.detect(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	draft := s.draft(result.Labels(), groups)
	draft.Detection = result
	draft.Image = in.Image
	draft.Annotated = annotated

	return s.finalize(ctx, draft, in.SubmitInput)
}

// Get возвращает сохранённую запись.
func (s *ObservationService) Get(ctx context.Context, observationID string) (*entity.StoredObservation, error) {
	return s.repo.Get(ctx, observationID)
}

// List возвращает последние записи.
func (s *ObservationService) List(ctx context.Context, limit int) ([]entity.StoredObservation, error) {
	return s.repo.List(ctx, limit)
}

// ReportPath возвращает путь к PDF записи, если файл ещё на диске.
func (s *ObservationService) ReportPath(ctx context.Context, observationID string) (string, error) {
	stored, err := s.repo.Get(ctx, observationID)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(stored.Report.Path); err != nil {
		return "", fmt.Errorf("report file for %s: %w", observationID, err)
	}
	return stored.Report.Path, nil
}

func (s *ObservationService) detect(ctx context.Context, image []byte) (*entity.DetectionResult, []byte, error) {
	if s.detector == nil {
		return nil, nil, ErrDetectorNotConfigured
	}
	if len(image) == 0 {
		return nil, nil, ErrEmptyImage
	}

	started := s.now()
	result, err := s.detector.Detect(ctx, image)
	if err != nil {
		s.observer.Failed("detect")
		return nil, nil, fmt.Errorf("detect ppe: %w", err)
	}
	s.observer.ObserveDetection(result, s.now().Sub(started))

	annotated, err := s.detector.Annotate(image, result)
	if err != nil {
		// без разметки отчёт всё равно строится
		s.log.Warn("annotate failed", "err", err)
		annotated = nil
	}

	return result, annotated, nil
}

func (s *ObservationService) draft(labels []string, groups []entity.Group) Draft {
	entries := s.catalog.Build(labels, groups)
	s.observer.ObserveChecklist(entries)

	return Draft{
		Labels:     append([]string(nil), labels...),
		Sections:   append([]entity.Group(nil), groups...),
		Checklist:  entries,
		Narrative:  checklist.BuildNarrative(entries),
		AnalysedAt: s.now(),
		rev:        s.revs.Add(1),
	}
}

func (s *ObservationService) finalize(ctx context.Context, draft Draft, in SubmitInput) (*entity.StoredObservation, error) {
	now := s.now()
	date := strings.TrimSpace(in.Date)
	if date == "" {
		date = now.Format(DateLayout)
	}
	clock := strings.TrimSpace(in.Time)
	if clock == "" {
		clock = now.Format(TimeLayout)
	}
	location := strings.TrimSpace(in.Location)
	if location == "" {
		location = s.defaultLocation
	}
	supervisor := strings.TrimSpace(in.Supervisor)
	if supervisor == "" {
		supervisor = s.defaultSupervisor
	}

	obs := checklist.AssembleRecord(date, clock, location, draft.Checklist, in.Override.apply(draft.Narrative), supervisor)
	obs.ID = id.New("obs")
	obs.Labels = append([]string(nil), draft.Labels...)
	obs.CreatedAt = now

	report, err := s.renderer.Render(ctx, obs)
	if err != nil {
		s.observer.Failed("render")
		return nil, fmt.Errorf("render report: %w", err)
	}
	s.observer.ReportRendered()

	if s.archiver != nil {
		uri, err := s.archiver.Archive(ctx, obs, *report, draft.Annotated)
		if err != nil {
			// архив необязателен, локальная копия отчёта уже есть
			s.observer.Failed("archive")
			s.log.Warn("archive report failed", "observation_id", obs.ID, "err", err)
		} else {
			report.ArchiveURI = uri
		}
	}

	stored := entity.StoredObservation{Observation: obs, Report: *report}
	if err := s.repo.Save(ctx, stored); err != nil {
		s.observer.Failed("store")
		_ = os.Remove(report.Path)
		return nil, fmt.Errorf("save observation: %w", err)
	}

	s.observer.ObservationSubmitted()
	s.log.Info("observation saved",
		"observation_id", obs.ID,
		"location", obs.Location,
		"report", report.Path,
		"pages", report.Pages,
	)
	return &stored, nil
}

// sections отсутствие выбора (nil) означает все разделы, пустой список означает ни одного.
func (s *ObservationService) sections(names []string) ([]entity.Group, error) {
	if names == nil {
		return entity.AllGroups(), nil
	}
	return checklist.ParseGroups(names)
}

// orElse заполняет пустые поля значениями из def.
func (in SubmitInput) orElse(def SubmitInput) SubmitInput {
	pick := func(v, d string) string {
		if strings.TrimSpace(v) == "" {
			return d
		}
		return v
	}
	in.Date = pick(in.Date, def.Date)
	in.Time = pick(in.Time, def.Time)
	in.Location = pick(in.Location, def.Location)
	in.Supervisor = pick(in.Supervisor, def.Supervisor)
	in.Override.Description = pick(in.Override.Description, def.Override.Description)
	in.Override.Interventions = pick(in.Override.Interventions, def.Override.Interventions)
	in.Override.PositiveBehaviours = pick(in.Override.PositiveBehaviours, def.Override.PositiveBehaviours)
	in.Override.NearMisses = pick(in.Override.NearMisses, def.Override.NearMisses)
	return in
}

func (o NarrativeOverride) apply(n entity.Narrative) entity.Narrative {
	if v := strings.TrimSpace(o.Description); v != "" {
		n.Description = v
	}
	if v := strings.TrimSpace(o.Interventions); v != "" {
		n.Interventions = v
	}
	if v := strings.TrimSpace(o.PositiveBehaviours); v != "" {
		n.PositiveBehaviours = v
	}
	if v := strings.TrimSpace(o.NearMisses); v != "" {
		n.NearMisses = v
	}
	return n
}

type noopObserver struct{}

func (noopObserver) ObserveDetection(*entity.DetectionResult, time.Duration) {}
func (noopObserver) ObserveChecklist([]entity.ChecklistEntry)                {}
func (noopObserver) ReportRendered()                                         {}
func (noopObserver) ObservationSubmitted()                                   {}
func (noopObserver) Failed(string)                                           {}
