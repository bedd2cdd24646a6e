package container

import (
	app "safety-card-bot/internal/application"
	"safety-card-bot/internal/domain/checklist"
	"safety-card-bot/internal/domain/port"
)

// Deps внешние зависимости сервисов приложения. Archiver и Observer необязательны.
type Deps struct {
	Users        port.UserRepository
	Observations port.ObservationRepository
	Detector     port.PPEDetector
	Catalog      *checklist.Catalog
	Renderer     port.ReportRenderer
	Archiver     port.ReportArchiver
	Observer     port.Observer
	Options      app.ObservationOptions
}

type Container struct {
	UserService        *app.UserService
	ObservationService *app.ObservationService
}

func New(d Deps) *Container {
	userService := app.NewUserService(d.Users)
	observationService := app.NewObservationService(
		userService,
		d.Detector,
		d.Catalog,
		d.Renderer,
		d.Observations,
		d.Archiver,
		d.Observer,
		d.Options,
	)

	return &Container{
		UserService:        userService,
		ObservationService: observationService,
	}
}
