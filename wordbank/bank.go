package wordbank

import (
	"charades/domain"
	_ "embed"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

const customPrefix = "custom-"

//go:embed categories.json
var builtinCategories []byte

// LoadBuiltins decodes the categories shipped with the server.
func LoadBuiltins() ([]domain.Category, error) {
	var categories []domain.Category
	if err := json.Unmarshal(builtinCategories, &categories); err != nil {
		return nil, fmt.Errorf("decode built-in categories: %w", err)
	}
	return categories, nil
}

// Bank is a fixed set of categories. It implements game.WordBank.
type Bank struct {
	categories []domain.Category
	byId       map[string]int
}

func NewBank(categories []domain.Category) *Bank {
	b := &Bank{
		categories: categories,
		byId:       make(map[string]int, len(categories)),
	}
	for i, c := range categories {
		b.byId[c.ID] = i
	}
	return b
}

// Categories returns the categories matching ids in the order asked for.
// Unknown ids are skipped and each category is returned once.
func (b *Bank) Categories(ids []string) []domain.Category {
	res := make([]domain.Category, 0, len(ids))
	seen := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		i, ok := b.byId[id]
		if !ok {
			continue
		}
		if _, dup := seen[i]; dup {
			continue
		}
		seen[i] = struct{}{}
		res = append(res, b.categories[i])
	}
	return res
}

func (b *Bank) All() []domain.Category {
	return slices.Clone(b.categories)
}

// CustomId is the category id players use to pick a custom category.
func CustomId(id int64) string {
	return customPrefix + strconv.FormatInt(id, 10)
}

// ParseCustomId extracts the database id from a custom category id.
func ParseCustomId(s string) (int64, bool) {
	raw, ok := strings.CutPrefix(s, customPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func fromCustom(c domain.CustomCategory) domain.Category {
	return domain.Category{
		ID:    CustomId(c.Id),
		Name:  c.Name,
		Icon:  c.Icon,
		Color: c.Color,
		Words: slices.Clone(c.Words),
	}
}
