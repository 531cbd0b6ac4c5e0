package wordbank

import (
	"charades/domain"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/rs/zerolog"
)

const (
	defaultIcon   = "Sparkles"
	defaultColor  = "purple"
	maxNameLength = 50
)

type CustomCategoryRepo interface {
	CustomCategories(ctx context.Context, deviceId string) ([]domain.CustomCategory, error)
	CreateCustomCategory(ctx context.Context, c domain.CustomCategory) (domain.CustomCategory, error)
	UpdateCustomCategory(ctx context.Context, id int64, patch domain.CustomCategoryPatch) (domain.CustomCategory, error)
	DeleteCustomCategory(ctx context.Context, id int64) (domain.CustomCategory, error)
}

// Catalog merges the built-in categories with the custom ones of a device.
// Custom categories are cached per device and dropped from the cache on every
// write of that device.
type Catalog struct {
	builtins []domain.Category
	repo     CustomCategoryRepo
	cache    *ristretto.Cache
	ttl      time.Duration
	logger   zerolog.Logger
}

func NewCatalog(builtins []domain.Category, repo CustomCategoryRepo, ttl time.Duration, logger zerolog.Logger) (*Catalog, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     1e4,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create custom category cache: %w", err)
	}

	return &Catalog{
		builtins: builtins,
		repo:     repo,
		cache:    cache,
		ttl:      ttl,
		logger:   logger,
	}, nil
}

func (c *Catalog) Close() {
	c.cache.Close()
}

// BankFor returns the built-in categories plus the custom categories of
// deviceId. Anonymous callers only get the built-ins.
func (c *Catalog) BankFor(ctx context.Context, deviceId string) (*Bank, error) {
	categories, err := c.Categories(ctx, deviceId)
	if err != nil {
		return nil, err
	}
	return NewBank(categories), nil
}

func (c *Catalog) Categories(ctx context.Context, deviceId string) ([]domain.Category, error) {
	res := slices.Clone(c.builtins)
	if deviceId == "" {
		return res, nil
	}

	customs, err := c.CustomCategories(ctx, deviceId)
	if err != nil {
		return nil, err
	}
	for _, cc := range customs {
		res = append(res, fromCustom(cc))
	}
	return res, nil
}

func (c *Catalog) CustomCategories(ctx context.Context, deviceId string) ([]domain.CustomCategory, error) {
	if cached, ok := c.cache.Get(deviceId); ok {
		if customs, ok := cached.([]domain.CustomCategory); ok {
			return customs, nil
		}
	}

	customs, err := c.repo.CustomCategories(ctx, deviceId)
	if err != nil {
		return nil, err
	}
	if c.ttl > 0 {
		c.cache.SetWithTTL(deviceId, customs, 1, c.ttl)
	}
	return customs, nil
}

func (c *Catalog) CreateCustom(ctx context.Context, cc domain.CustomCategory) (domain.CustomCategory, error) {
	cc.Name = strings.TrimSpace(cc.Name)
	cc.Words = cleanWords(cc.Words)
	if err := validateCustom(cc.Name, cc.Words); err != nil {
		return domain.CustomCategory{}, err
	}
	if cc.Icon == "" {
		cc.Icon = defaultIcon
	}
	if cc.Color == "" {
		cc.Color = defaultColor
	}

	created, err := c.repo.CreateCustomCategory(ctx, cc)
	if err != nil {
		return domain.CustomCategory{}, err
	}
	c.invalidate(created.DeviceId)
	c.logger.Info().Int64("category", created.Id).Str("device", created.DeviceId).Msg("custom category created")
	return created, nil
}

// UpdateCustom applies patch to custom category id. A non-empty owner must be
// the device the category belongs to.
func (c *Catalog) UpdateCustom(ctx context.Context, owner string, id int64, patch domain.CustomCategoryPatch) (domain.CustomCategory, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" || len(name) > maxNameLength {
			return domain.CustomCategory{}, domain.ErrInvalidCategory
		}
		patch.Name = &name
	}
	if patch.Words != nil {
		words := cleanWords(*patch.Words)
		if len(words) == 0 {
			return domain.CustomCategory{}, domain.ErrInvalidCategory
		}
		patch.Words = &words
	}
	if err := c.checkOwner(ctx, owner, id); err != nil {
		return domain.CustomCategory{}, err
	}

	updated, err := c.repo.UpdateCustomCategory(ctx, id, patch)
	if err != nil {
		return domain.CustomCategory{}, err
	}
	c.invalidate(updated.DeviceId)
	return updated, nil
}

func (c *Catalog) DeleteCustom(ctx context.Context, owner string, id int64) error {
	if err := c.checkOwner(ctx, owner, id); err != nil {
		return err
	}
	deleted, err := c.repo.DeleteCustomCategory(ctx, id)
	if err != nil {
		return err
	}
	c.invalidate(deleted.DeviceId)
	c.logger.Info().Int64("category", id).Str("device", deleted.DeviceId).Msg("custom category deleted")
	return nil
}

// checkOwner hides categories of other devices behind ErrCategoryNotFound.
func (c *Catalog) checkOwner(ctx context.Context, owner string, id int64) error {
	if owner == "" {
		return nil
	}
	customs, err := c.CustomCategories(ctx, owner)
	if err != nil {
		return err
	}
	if !slices.ContainsFunc(customs, func(cc domain.CustomCategory) bool { return cc.Id == id }) {
		return domain.ErrCategoryNotFound
	}
	return nil
}

func (c *Catalog) invalidate(deviceId string) {
	c.cache.Del(deviceId)
}

func validateCustom(name string, words []string) error {
	if name == "" || len(name) > maxNameLength || len(words) == 0 {
		return domain.ErrInvalidCategory
	}
	return nil
}

// cleanWords trims words and drops blanks and duplicates.
func cleanWords(words []string) []string {
	res := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" || slices.Contains(res, w) {
			continue
		}
		res = append(res, w)
	}
	return res
}
