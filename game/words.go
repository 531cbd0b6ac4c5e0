package game

import (
	"charades/domain"
	"math/rand/v2"
)

// WordBank returns the categories matching ids. Unknown ids are skipped.
type WordBank interface {
	Categories(ids []string) []domain.Category
}

type drawnWord struct {
	word     string
	category string
}

// wordPicker draws words without repeating one until the drawn category runs
// dry. used is shared by all categories of a game.
type wordPicker struct {
	bank WordBank
	rng  *rand.Rand
	used map[string]struct{}
}

func newWordPicker(bank WordBank, rng *rand.Rand) *wordPicker {
	return &wordPicker{
		bank: bank,
		rng:  rng,
		used: make(map[string]struct{}),
	}
}

func (wp *wordPicker) pick(ids []string) (drawnWord, bool) {
	if wp.bank == nil || len(ids) == 0 {
		return drawnWord{}, false
	}

	categories := make([]domain.Category, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, c := range wp.bank.Categories(ids) {
		if _, dup := seen[c.ID]; dup || len(c.Words) == 0 {
			continue
		}
		seen[c.ID] = struct{}{}
		categories = append(categories, c)
	}
	if len(categories) == 0 {
		return drawnWord{}, false
	}

	category := categories[wp.rng.IntN(len(categories))]

	unused := make([]string, 0, len(category.Words))
	for _, w := range category.Words {
		if _, ok := wp.used[w]; !ok {
			unused = append(unused, w)
		}
	}

	if len(unused) == 0 {
		wp.reset()
		return drawnWord{
			word:     category.Words[wp.rng.IntN(len(category.Words))],
			category: category.ID,
		}, true
	}

	word := unused[wp.rng.IntN(len(unused))]
	wp.used[word] = struct{}{}
	return drawnWord{word: word, category: category.ID}, true
}

func (wp *wordPicker) reset() {
	clear(wp.used)
}
