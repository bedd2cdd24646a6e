// Package checklist превращает метки детектора в чек-лист СИЗ и текст карточки наблюдения.
// Все функции пакета чистые: без ввода-вывода и общего состояния.
package checklist

import "safety-card-bot/internal/domain/entity"

// Build строит шесть строк чек-листа в порядке каталога.
// Раздел вне selected всегда not_applicable, независимо от детекций.
func (c *Catalog) Build(detected []string, selected []entity.Group) []entity.ChecklistEntry {
	labels := make(map[string]struct{}, len(detected))
	for _, l := range detected {
		labels[entity.NormalizeLabel(l)] = struct{}{}
	}
	groups := make(map[entity.Group]struct{}, len(selected))
	for _, g := range selected {
		groups[g] = struct{}{}
	}

	entries := make([]entity.ChecklistEntry, 0, len(c.categories))
	for _, cat := range c.categories {
		status := entity.StatusUnsafe
		if _, ok := groups[cat.Group]; !ok {
			status = entity.StatusNotApplicable
		} else if _, ok := labels[cat.Label]; ok {
			status = entity.StatusSafe
		}
		entries = append(entries, entity.ChecklistEntry{
			Group:    cat.Group,
			Category: cat.Name,
			Item:     cat.Item,
			Status:   status,
		})
	}
	return entries
}

// BuildChecklist строит чек-лист по стандартному каталогу.
func BuildChecklist(detected []string, selected []entity.Group) []entity.ChecklistEntry {
	return defaultCatalog.Build(detected, selected)
}
