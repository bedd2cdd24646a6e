package checklist

import (
	"errors"
	"fmt"
	"strings"

	"safety-card-bot/internal/domain/entity"
)

// ErrUnknownGroup название раздела не распознано.
var ErrUnknownGroup = errors.New("unknown section")

const allSections = "all"

var groupAliases = map[string]entity.Group{
	"head": entity.GroupHead,
	"eyes": entity.GroupEyes,
	"eye":  entity.GroupEyes,
	"face": entity.GroupFace,
	"hand": entity.GroupHand,
	"foot": entity.GroupFoot,
	"body": entity.GroupBody,
}

func parseGroup(name string) (entity.Group, error) {
	g, ok := groupAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownGroup, name)
	}
	return g, nil
}

// ParseGroups разбирает выбор оператора: имена через пробел или запятую, "All" = все разделы.
// Результат без повторов и в порядке строк чек-листа.
func ParseGroups(names []string) ([]entity.Group, error) {
	selected := make(map[entity.Group]struct{})
	all := false
	for _, raw := range names {
		fields := strings.FieldsFunc(raw, func(r rune) bool {
			return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n'
		})
		for _, name := range fields {
			if strings.EqualFold(name, allSections) {
				all = true
				continue
			}
			g, err := parseGroup(name)
			if err != nil {
				return nil, err
			}
			selected[g] = struct{}{}
		}
	}
	// "All" применяем только после проверки всех имён
	if all {
		return entity.AllGroups(), nil
	}

	groups := make([]entity.Group, 0, len(selected))
	for _, g := range entity.AllGroups() {
		if _, ok := selected[g]; ok {
			groups = append(groups, g)
		}
	}
	return groups, nil
}
