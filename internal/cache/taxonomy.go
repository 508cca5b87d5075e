package cache

import (
	"context"
	"slices"
	"time"

	"spendly/internal/core"
	"spendly/internal/ports"
)

// TaxonomyRepository is the store the Taxonomy cache sits in front of.
type TaxonomyRepository interface {
	ports.CategoryStore
	ports.AccountStore
	ports.OwnerStore
}

type TaxonomyConfig struct {
	MaxUsers int
	TTL      time.Duration
}

func DefaultTaxonomyConfig() TaxonomyConfig {
	return TaxonomyConfig{MaxUsers: 1000, TTL: 5 * time.Minute}
}

// Taxonomy caches each user's active categories, accounts and owners, the
// lists every classification prompt is built from. Full listings and
// single-row reads pass through. Any write for a user drops that user's
// entries, so readers going through the same Taxonomy never see stale
// lists.
type Taxonomy struct {
	TaxonomyRepository

	categories *LRU[[]core.Category]
	accounts   *LRU[[]core.Account]
	owners     *LRU[[]core.Owner]
}

func NewTaxonomy(repo TaxonomyRepository, cfg TaxonomyConfig) *Taxonomy {
	return &Taxonomy{
		TaxonomyRepository: repo,
		categories:         NewLRU[[]core.Category](cfg.MaxUsers, cfg.TTL),
		accounts:           NewLRU[[]core.Account](cfg.MaxUsers, cfg.TTL),
		owners:             NewLRU[[]core.Owner](cfg.MaxUsers, cfg.TTL),
	}
}

// cachedList serves active listings from c, filling it from load on a miss.
// Callers get their own copy of the slice.
func cachedList[T any](ctx context.Context, c *LRU[[]T], userID string, activeOnly bool,
	load func(ctx context.Context, userID string, activeOnly bool) ([]T, error)) ([]T, error) {
	if !activeOnly {
		return load(ctx, userID, false)
	}
	if items, ok := c.Get(userID); ok {
		return slices.Clone(items), nil
	}
	items, err := load(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	c.Set(userID, slices.Clone(items))
	return items, nil
}

func (t *Taxonomy) ListCategories(ctx context.Context, userID string, activeOnly bool) ([]core.Category, error) {
	return cachedList(ctx, t.categories, userID, activeOnly, t.TaxonomyRepository.ListCategories)
}

func (t *Taxonomy) ListAccounts(ctx context.Context, userID string, activeOnly bool) ([]core.Account, error) {
	return cachedList(ctx, t.accounts, userID, activeOnly, t.TaxonomyRepository.ListAccounts)
}

func (t *Taxonomy) ListOwners(ctx context.Context, userID string, activeOnly bool) ([]core.Owner, error) {
	return cachedList(ctx, t.owners, userID, activeOnly, t.TaxonomyRepository.ListOwners)
}

func (t *Taxonomy) CreateCategories(ctx context.Context, cats ...core.Category) error {
	err := t.TaxonomyRepository.CreateCategories(ctx, cats...)
	for _, c := range cats {
		t.categories.Delete(c.UserID)
	}
	return err
}

func (t *Taxonomy) UpdateCategory(ctx context.Context, c core.Category) error {
	defer t.categories.Delete(c.UserID)
	return t.TaxonomyRepository.UpdateCategory(ctx, c)
}

func (t *Taxonomy) DeleteCategory(ctx context.Context, userID, id string) error {
	defer t.categories.Delete(userID)
	return t.TaxonomyRepository.DeleteCategory(ctx, userID, id)
}

func (t *Taxonomy) CreateAccounts(ctx context.Context, accts ...core.Account) error {
	err := t.TaxonomyRepository.CreateAccounts(ctx, accts...)
	for _, a := range accts {
		t.accounts.Delete(a.UserID)
	}
	return err
}

func (t *Taxonomy) UpdateAccount(ctx context.Context, a core.Account) error {
	defer t.accounts.Delete(a.UserID)
	return t.TaxonomyRepository.UpdateAccount(ctx, a)
}

func (t *Taxonomy) DeleteAccount(ctx context.Context, userID, id string) error {
	defer t.accounts.Delete(userID)
	return t.TaxonomyRepository.DeleteAccount(ctx, userID, id)
}

func (t *Taxonomy) CreateOwners(ctx context.Context, owners ...core.Owner) error {
	err := t.TaxonomyRepository.CreateOwners(ctx, owners...)
	for _, o := range owners {
		t.owners.Delete(o.UserID)
	}
	return err
}

func (t *Taxonomy) UpdateOwner(ctx context.Context, o core.Owner) error {
	defer t.owners.Delete(o.UserID)
	return t.TaxonomyRepository.UpdateOwner(ctx, o)
}

func (t *Taxonomy) DeleteOwner(ctx context.Context, userID, id string) error {
	defer t.owners.Delete(userID)
	return t.TaxonomyRepository.DeleteOwner(ctx, userID, id)
}

// CleanExpired implements Cleaner.
func (t *Taxonomy) CleanExpired() int {
	return t.categories.CleanExpired() + t.accounts.CleanExpired() + t.owners.CleanExpired()
}
