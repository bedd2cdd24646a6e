package checklist

import (
	"errors"
	"fmt"
	"strings"

	"safety-card-bot/internal/domain/entity"
)

var (
	// ErrLabelNotInVocabulary метка категории отсутствует среди классов модели.
	ErrLabelNotInVocabulary = errors.New("category label is not in model vocabulary")
	// ErrInvalidCatalog каталог категорий не прошёл проверку.
	ErrInvalidCatalog = errors.New("invalid ppe catalog")
)

// Catalog типизированная таблица "категория -> метка детектора".
// Порядок категорий всегда совпадает с entity.AllGroups.
type Catalog struct {
	categories []entity.Category
}

var defaultCategories = []entity.Category{
	{Group: entity.GroupHead, Name: "Head Protection", Item: "Hairnet", Label: "hairnet"},
	{Group: entity.GroupEyes, Name: "Eye Protection", Item: "Goggles", Label: "goggles"},
	{Group: entity.GroupFace, Name: "Face Protection", Item: "Mask", Label: "mask"},
	{Group: entity.GroupHand, Name: "Hand Protection", Item: "Gloves", Label: "gloves"},
	{Group: entity.GroupFoot, Name: "Foot Protection", Item: "Shoes", Label: "shoes"},
	{Group: entity.GroupBody, Name: "Body Protection", Item: "Full-body suit", Label: "full-body suit"},
}

var defaultCatalog = &Catalog{categories: defaultCategories}

// DefaultCatalog возвращает стандартный каталог из шести категорий.
func DefaultCatalog() *Catalog {
	return defaultCatalog
}

// NewCatalog проверяет категории и раскладывает их в порядке разделов.
func NewCatalog(categories []entity.Category) (*Catalog, error) {
	byGroup := make(map[entity.Group]entity.Category, len(categories))
	for _, c := range categories {
		g, err := parseGroup(string(c.Group))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
		}
		c.Group = g
		if _, ok := byGroup[c.Group]; ok {
			return nil, fmt.Errorf("%w: duplicate group %s", ErrInvalidCatalog, c.Group)
		}
		c.Label = entity.NormalizeLabel(c.Label)
		if c.Label == "" {
			return nil, fmt.Errorf("%w: label is required for group %s", ErrInvalidCatalog, c.Group)
		}
		if strings.TrimSpace(c.Item) == "" {
			return nil, fmt.Errorf("%w: item is required for group %s", ErrInvalidCatalog, c.Group)
		}
		if strings.TrimSpace(c.Name) == "" {
			c.Name = string(c.Group) + " Protection"
		}
		byGroup[c.Group] = c
	}

	ordered := make([]entity.Category, 0, len(entity.AllGroups()))
	for _, g := range entity.AllGroups() {
		c, ok := byGroup[g]
		if !ok {
			return nil, fmt.Errorf("%w: missing group %s", ErrInvalidCatalog, g)
		}
		ordered = append(ordered, c)
	}

	return &Catalog{categories: ordered}, nil
}

// Categories возвращает копию категорий каталога.
func (c *Catalog) Categories() []entity.Category {
	return append([]entity.Category(nil), c.categories...)
}

// Labels возвращает метки всех категорий.
func (c *Catalog) Labels() []string {
	labels := make([]string, 0, len(c.categories))
	for _, cat := range c.categories {
		labels = append(labels, cat.Label)
	}
	return labels
}

// Validate падает сразу, если метки категории нет в словаре классов модели.
func (c *Catalog) Validate(vocabulary []string) error {
	known := make(map[string]struct{}, len(vocabulary))
	for _, v := range vocabulary {
		known[entity.NormalizeLabel(v)] = struct{}{}
	}

	var missing []string
	for _, cat := range c.categories {
		if _, ok := known[cat.Label]; !ok {
			missing = append(missing, fmt.Sprintf("%s (%q)", cat.Name, cat.Label))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrLabelNotInVocabulary, strings.Join(missing, ", "))
	}
	return nil
}
