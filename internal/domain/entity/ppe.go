package entity

// Group раздел тела, который оператор выбирает для проверки
type Group string

const (
	GroupHead Group = "Head"
	GroupEyes Group = "Eyes"
	GroupFace Group = "Face"
	GroupHand Group = "Hand"
	GroupFoot Group = "Foot"
	GroupBody Group = "Body"
)

// AllGroups возвращает все разделы в порядке строк чек-листа.
func AllGroups() []Group {
	return []Group{GroupHead, GroupEyes, GroupFace, GroupHand, GroupFoot, GroupBody}
}

// Category строка чек-листа: раздел, название, предмет СИЗ и метка детектора.
type Category struct {
	Group Group  `json:"group" yaml:"group"`
	Name  string `json:"name" yaml:"name"`
	Item  string `json:"item" yaml:"item"`
	Label string `json:"label" yaml:"label"`
}

// Status результат проверки одной категории
type Status string

const (
	StatusNotApplicable Status = "not_applicable"
	StatusSafe          Status = "safe"
	StatusUnsafe        Status = "unsafe"
)

// ChecklistEntry одна строка чек-листа наблюдения.
type ChecklistEntry struct {
	Group    Group  `json:"group"`
	Category string `json:"category"`
	Item     string `json:"item"`
	Status   Status `json:"status"`
}
