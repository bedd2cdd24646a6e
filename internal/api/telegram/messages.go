package telegram

import (
	"fmt"
	"strings"

	app "safety-card-bot/internal/application"
	"safety-card-bot/internal/domain/entity"
)

const (
	msgStart = `👋 Привет! Я помогаю заполнять карточку наблюдения по СИЗ.

📸 Пришлите фото рабочей зоны, я найду средства защиты, заполню чек-лист и подготовлю PDF.

📋 Команды:
/check — начать наблюдение
/sections — выбрать разделы чек-листа
/location — указать площадку
/supervisor — указать руководителя
/date, /time — дата и время в отчёте
/note — свой текст в разделе описания
/report — получить PDF
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ /check и фото рабочей зоны
2️⃣ Бот отметит найденные СИЗ и заполнит чек-лист
3️⃣ /report — карточка наблюдения в PDF

🗂 Разделы: Head, Eyes, Face, Hand, Foot, Body или All.
Пример: /sections Head Hand Foot
Невыбранные разделы отмечаются как N/A.

📋 Команды:
/location Цех 2 — площадка в отчёте (по умолчанию Site A)
/supervisor Иван Петров — имя руководителя
/date 2024-05-01 — дата отчёта (/date - сбросить)
/time 09:30 AM — время отчёта (/time - сбросить)
/note near_misses Мокрый пол у склада — свой текст раздела
   разделы: description, interventions, positive, near_misses
   /note near_misses без текста вернёт автоматический текст
/cancel — отменить операцию`

	msgAwaitingPhoto     = "📸 Отправьте фото рабочей зоны.\n🗂 Разделы: %s"
	msgCancelled         = "❌ Операция отменена. Отправьте /check для нового наблюдения."
	msgSendPhoto         = "📸 Пожалуйста, отправьте фото рабочей зоны или команду из /help."
	msgCheckFirst        = "ℹ️ Сначала отправьте /check, затем фото."
	msgBusy              = "⏳ Предыдущее фото ещё обрабатывается."
	msgUnknownCommand    = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing        = "⏳ Обрабатываю изображение..."
	msgProcessingError   = "⚠️ Не удалось обработать изображение. Попробуйте сделать другое фото."
	msgInternalError     = "⚠️ Внутренняя ошибка. Попробуйте ещё раз."
	msgSectionsCurrent   = "🗂 Выбранные разделы: %s\nИзменить: /sections Head Hand или /sections All"
	msgSectionsSet       = "✅ Разделы: %s"
	msgSectionsUnknown   = "❓ Неизвестный раздел. Доступны: Head, Eyes, Face, Hand, Foot, Body, All."
	msgLocationCurrent   = "📍 Площадка: %s\nИзменить: /location <название>"
	msgLocationSet       = "📍 Площадка сохранена: %s"
	msgSupervisorCurrent = "👷 Руководитель: %s\nИзменить: /supervisor <имя>"
	msgSupervisorSet     = "👷 Руководитель сохранён: %s"
	msgDateCurrent       = "📅 Дата отчёта: %s\nИзменить: /date YYYY-MM-DD"
	msgDateSet           = "📅 Дата отчёта: %s"
	msgDateInvalid       = "❓ Дата в формате YYYY-MM-DD, например /date 2024-05-01"
	msgTimeCurrent       = "🕘 Время отчёта: %s\nИзменить: /time 09:30 AM"
	msgTimeSet           = "🕘 Время отчёта: %s"
	msgTimeInvalid       = "❓ Время в формате hh:mm AM/PM или 24 часа, например /time 09:30 AM"
	msgNoteUsage         = "❓ Использование: /note <description|interventions|positive|near_misses> <текст>"
	msgNoteSet           = "✍️ Текст раздела %s сохранён для следующего отчёта"
	msgNoteCleared       = "✍️ Раздел %s снова заполняется автоматически"
	msgRendering         = "📝 Формирую отчёт..."
	msgNoDraft           = "ℹ️ Нет проанализированного фото. Отправьте /check и фото."
	msgReportError       = "⚠️ Не удалось сформировать отчёт. Попробуйте /report ещё раз."
	msgReportCaption     = "📄 Карточка наблюдения %s\n%s %s, %s"
	msgDraftFooter       = "📄 /report — получить PDF, /sections — изменить разделы."
)

// resetArg аргумент /date и /time, возвращающий значение по умолчанию
const resetArg = "-"

func formatSections(groups []entity.Group) string {
	if len(groups) == 0 {
		return "нет (все разделы N/A)"
	}
	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, string(g))
	}
	return strings.Join(names, ", ")
}

func statusText(s entity.Status) string {
	switch s {
	case entity.StatusSafe:
		return "✅ Safe"
	case entity.StatusUnsafe:
		return "❌ Unsafe"
	default:
		return "➖ N/A"
	}
}

// formatDraft краткая сводка черновика: найденные метки и чек-лист.
func formatDraft(d *app.Draft) string {
	var b strings.Builder

	found := "ничего"
	if len(d.Labels) > 0 {
		found = strings.Join(d.Labels, ", ")
	}
	fmt.Fprintf(&b, "🔍 Найдено: %s\n\n", found)

	for i, e := range d.Checklist {
		fmt.Fprintf(&b, "%d. %s (%s): %s\n", i+1, e.Category, e.Item, statusText(e.Status))
	}

	b.WriteString("\n")
	b.WriteString(msgDraftFooter)
	return b.String()
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
