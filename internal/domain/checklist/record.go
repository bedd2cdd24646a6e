package checklist

import "safety-card-bot/internal/domain/entity"

// AssembleRecord собирает запись наблюдения. Формат даты, времени и площадки не проверяется.
func AssembleRecord(date, time, location string, entries []entity.ChecklistEntry, narrative entity.Narrative, supervisor string) entity.Observation {
	return entity.Observation{
		Date:       date,
		Time:       time,
		Location:   location,
		Checklist:  append([]entity.ChecklistEntry(nil), entries...),
		Narrative:  narrative,
		Supervisor: supervisor,
	}
}
