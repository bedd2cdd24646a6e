package checklist

import (
	"fmt"
	"strings"

	"safety-card-bot/internal/domain/entity"
)

const (
	descriptionTemplate = "During the site observation, workers were observed utilizing the following personal protective equipment (PPE): %s. " +
		"However, it is essential to ensure that all required PPE is consistently worn to maintain safety standards."
	interventionsTemplate = "The following interventions are required to address PPE non-compliance: %s. " +
		"Immediate action is recommended to mitigate potential hazards and ensure worker safety."
	positiveTemplate = "Positive safety behaviours were observed, including the proper use of the following PPE: %s. " +
		"This demonstrates a proactive approach to safety and should be encouraged."
	nearMissTemplate = "The following near misses were identified due to missing or improper use of PPE: %s. " +
		"These incidents highlight potential risks that could lead to injuries or accidents. " +
		"Corrective measures should be implemented immediately."
)

// Тексты для разделов, в которых нечего перечислить.
const (
	DescriptionCompliant = "All personnel were observed to be fully compliant with the required personal protective equipment (PPE) protocols. " +
		"This adherence to safety standards is commendable and contributes to a safer work environment."
	InterventionsNone = "No interventions are currently required. All personnel are adhering to the prescribed PPE protocols, " +
		"which reflects a strong commitment to workplace safety."
	PositiveNone = "No specific positive behaviours related to PPE usage were recorded during this observation. " +
		"It is recommended to reinforce the importance of PPE compliance through regular training and reminders."
	NearMissNone = "No near misses related to PPE usage were identified during this observation. " +
		"This indicates a strong safety culture and adherence to PPE protocols."
)

// BuildNarrative формирует четыре раздела карточки по чек-листу.
// Описание перечисляет предметы со статусом safe; строки not_applicable в текст не попадают.
func BuildNarrative(entries []entity.ChecklistEntry) entity.Narrative {
	var safe, interventions, nearMisses []string
	for _, e := range entries {
		switch e.Status {
		case entity.StatusSafe:
			safe = append(safe, e.Item)
		case entity.StatusUnsafe:
			item := strings.ToLower(e.Item)
			interventions = append(interventions, item+" should be provided")
			nearMisses = append(nearMisses, "Potential risk due to missing "+item)
		}
	}

	return entity.Narrative{
		Description:        sentence(descriptionTemplate, DescriptionCompliant, safe),
		Interventions:      sentence(interventionsTemplate, InterventionsNone, interventions),
		PositiveBehaviours: sentence(positiveTemplate, PositiveNone, safe),
		NearMisses:         sentence(nearMissTemplate, NearMissNone, nearMisses),
	}
}

func sentence(template, empty string, items []string) string {
	if len(items) == 0 {
		return empty
	}
	return fmt.Sprintf(template, strings.Join(items, ", "))
}
