package entity

import "time"

// Narrative четыре текстовых раздела карточки наблюдения.
type Narrative struct {
	Description        string `json:"description"`
	Interventions      string `json:"interventions"`
	PositiveBehaviours string `json:"positive_behaviours"`
	NearMisses         string `json:"near_misses"`
}

// Observation запись наблюдения, которая уходит на рендер.
// После сборки запись не меняется: новая версия собирается заново.
type Observation struct {
	ID         string           `json:"id"`
	Date       string           `json:"date"`
	Time       string           `json:"time"`
	Location   string           `json:"location"`
	Checklist  []ChecklistEntry `json:"checklist"`
	Narrative  Narrative        `json:"narrative"`
	Supervisor string           `json:"supervisor"`
	Labels     []string         `json:"labels,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// Report отрендеренная карточка наблюдения.
type Report struct {
	Path       string `json:"path"`
	SHA256     string `json:"sha256"`
	Pages      int    `json:"pages"`
	ArchiveURI string `json:"archive_uri,omitempty"`
}

// StoredObservation запись наблюдения вместе с отчётом, как она лежит в хранилище.
type StoredObservation struct {
	Observation Observation `json:"observation"`
	Report      Report      `json:"report"`
}
