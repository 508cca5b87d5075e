package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"spendly/internal/core"
	"spendly/internal/ports"
)

// TaxonomyRepository stores the categories, accounts and owners of a user.
type TaxonomyRepository interface {
	ports.CategoryStore
	ports.AccountStore
	ports.OwnerStore
}

// TaxonomyService manages categories, accounts and owners. Names are unique
// per user regardless of case; accounts are unique per name and type.
type TaxonomyService struct {
	repo  TaxonomyRepository
	now   func() time.Time
	newID func() string
}

func NewTaxonomyService(repo TaxonomyRepository) *TaxonomyService {
	return &TaxonomyService{
		repo:  repo,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// Categories

func (s *TaxonomyService) ListCategories(ctx context.Context, userID string, activeOnly bool) ([]core.Category, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.repo.ListCategories(ctx, userID, activeOnly)
}

func (s *TaxonomyService) GetCategory(ctx context.Context, userID, id string) (core.Category, error) {
	if err := requireUser(userID); err != nil {
		return core.Category{}, err
	}
	return s.repo.GetCategory(ctx, userID, id)
}

func (s *TaxonomyService) CreateCategory(ctx context.Context, userID string, in core.CategoryInput) (core.Category, error) {
	if err := requireUser(userID); err != nil {
		return core.Category{}, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return core.Category{}, core.ErrEmptyName
	}
	created, err := s.CreateCategories(ctx, userID, []core.CategoryInput{in})
	if err != nil {
		return core.Category{}, err
	}
	return created[0], nil
}

// CreateCategories creates a batch atomically. Blank names are skipped; a
// name colliding with an existing category or an earlier entry rejects the
// whole batch.
func (s *TaxonomyService) CreateCategories(ctx context.Context, userID string, in []core.CategoryInput) ([]core.Category, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	existing, err := s.repo.ListCategories(ctx, userID, false)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}

	seen := core.NewDuplicateChecker(core.CategoryKeys(existing)...)
	cats := make([]core.Category, 0, len(in))
	for _, ci := range in {
		name := strings.TrimSpace(ci.Name)
		if name == "" {
			continue
		}
		if !seen.Add(core.NameKey(name)) {
			return nil, core.DuplicateError("category", name)
		}
		cats = append(cats, core.Category{
			ID:        s.newID(),
			UserID:    userID,
			Name:      name,
			Keywords:  core.NormalizeKeywords(ci.Keywords),
			IsActive:  true,
			CreatedAt: s.now(),
		})
	}
	if len(cats) == 0 {
		return cats, nil
	}
	if err := s.repo.CreateCategories(ctx, cats...); err != nil {
		return nil, fmt.Errorf("create categories: %w", err)
	}
	return cats, nil
}

func (s *TaxonomyService) UpdateCategory(ctx context.Context, userID, id string, patch core.CategoryPatch) (core.Category, error) {
	if err := requireUser(userID); err != nil {
		return core.Category{}, err
	}
	current, err := s.repo.GetCategory(ctx, userID, id)
	if err != nil {
		return core.Category{}, err
	}
	c := patch.Apply(current)
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	if core.NameKey(c.Name) != core.NameKey(current.Name) {
		others, err := s.repo.ListCategories(ctx, userID, false)
		if err != nil {
			return core.Category{}, fmt.Errorf("load categories: %w", err)
		}
		for _, o := range others {
			if o.ID != c.ID && core.NameKey(o.Name) == core.NameKey(c.Name) {
				return core.Category{}, core.DuplicateError("category", c.Name)
			}
		}
	}

	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}

// DeleteCategory removes the category; its expenses keep existing
// uncategorized.
func (s *TaxonomyService) DeleteCategory(ctx context.Context, userID, id string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	return s.repo.DeleteCategory(ctx, userID, id)
}

// Accounts

func (s *TaxonomyService) ListAccounts(ctx context.Context, userID string, activeOnly bool) ([]core.Account, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.repo.ListAccounts(ctx, userID, activeOnly)
}

func (s *TaxonomyService) GetAccount(ctx context.Context, userID, id string) (core.Account, error) {
	if err := requireUser(userID); err != nil {
		return core.Account{}, err
	}
	return s.repo.GetAccount(ctx, userID, id)
}

func (s *TaxonomyService) CreateAccount(ctx context.Context, userID string, in core.AccountInput) (core.Account, error) {
	if err := requireUser(userID); err != nil {
		return core.Account{}, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return core.Account{}, core.ErrEmptyName
	}
	created, err := s.CreateAccounts(ctx, userID, []core.AccountInput{in})
	if err != nil {
		return core.Account{}, err
	}
	return created[0], nil
}

// CreateAccounts follows the CreateCategories rules, keyed on name and type.
func (s *TaxonomyService) CreateAccounts(ctx context.Context, userID string, in []core.AccountInput) ([]core.Account, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	existing, err := s.repo.ListAccounts(ctx, userID, false)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}

	seen := core.NewDuplicateChecker(core.AccountKeys(existing)...)
	accts := make([]core.Account, 0, len(in))
	for _, ai := range in {
		name := strings.TrimSpace(ai.Name)
		if name == "" {
			continue
		}
		a := core.Account{
			ID:        s.newID(),
			UserID:    userID,
			Name:      name,
			Type:      ai.Type,
			IsActive:  true,
			CreatedAt: s.now(),
		}
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("account %q: %w", name, err)
		}
		if !seen.Add(core.AccountKey(name, a.Type)) {
			return nil, core.DuplicateError("account", name)
		}
		accts = append(accts, a)
	}
	if len(accts) == 0 {
		return accts, nil
	}
	if err := s.repo.CreateAccounts(ctx, accts...); err != nil {
		return nil, fmt.Errorf("create accounts: %w", err)
	}
	return accts, nil
}

func (s *TaxonomyService) UpdateAccount(ctx context.Context, userID, id string, patch core.AccountPatch) (core.Account, error) {
	if err := requireUser(userID); err != nil {
		return core.Account{}, err
	}
	current, err := s.repo.GetAccount(ctx, userID, id)
	if err != nil {
		return core.Account{}, err
	}
	a := patch.Apply(current)
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}

	key := core.AccountKey(a.Name, a.Type)
	if key != core.AccountKey(current.Name, current.Type) {
		others, err := s.repo.ListAccounts(ctx, userID, false)
		if err != nil {
			return core.Account{}, fmt.Errorf("load accounts: %w", err)
		}
		for _, o := range others {
			if o.ID != a.ID && core.AccountKey(o.Name, o.Type) == key {
				return core.Account{}, core.DuplicateError("account", a.Name)
			}
		}
	}

	if err := s.repo.UpdateAccount(ctx, a); err != nil {
		return core.Account{}, fmt.Errorf("update account: %w", err)
	}
	return a, nil
}

func (s *TaxonomyService) DeleteAccount(ctx context.Context, userID, id string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	return s.repo.DeleteAccount(ctx, userID, id)
}

// Owners

func (s *TaxonomyService) ListOwners(ctx context.Context, userID string, activeOnly bool) ([]core.Owner, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.repo.ListOwners(ctx, userID, activeOnly)
}

func (s *TaxonomyService) GetOwner(ctx context.Context, userID, id string) (core.Owner, error) {
	if err := requireUser(userID); err != nil {
		return core.Owner{}, err
	}
	return s.repo.GetOwner(ctx, userID, id)
}

func (s *TaxonomyService) CreateOwner(ctx context.Context, userID string, in core.OwnerInput) (core.Owner, error) {
	if err := requireUser(userID); err != nil {
		return core.Owner{}, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return core.Owner{}, core.ErrEmptyName
	}
	created, err := s.CreateOwners(ctx, userID, []core.OwnerInput{in})
	if err != nil {
		return core.Owner{}, err
	}
	return created[0], nil
}

// CreateOwners follows the CreateCategories rules. Owners without a color
// get the next palette color not yet in use.
func (s *TaxonomyService) CreateOwners(ctx context.Context, userID string, in []core.OwnerInput) ([]core.Owner, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	existing, err := s.repo.ListOwners(ctx, userID, false)
	if err != nil {
		return nil, fmt.Errorf("load owners: %w", err)
	}

	used := make([]string, 0, len(existing)+len(in))
	for _, o := range existing {
		used = append(used, o.ColorTag)
	}

	seen := core.NewDuplicateChecker(core.OwnerKeys(existing)...)
	owners := make([]core.Owner, 0, len(in))
	for _, oi := range in {
		name := strings.TrimSpace(oi.Name)
		if name == "" {
			continue
		}
		color := strings.ToLower(strings.TrimSpace(oi.ColorTag))
		if color == "" {
			color = core.NextOwnerColor(used)
		}
		o := core.Owner{
			ID:        s.newID(),
			UserID:    userID,
			Name:      name,
			ColorTag:  color,
			IsActive:  true,
			CreatedAt: s.now(),
		}
		if err := o.Validate(); err != nil {
			return nil, fmt.Errorf("owner %q: %w", name, err)
		}
		if !seen.Add(core.NameKey(name)) {
			return nil, core.DuplicateError("owner", name)
		}
		used = append(used, color)
		owners = append(owners, o)
	}
	if len(owners) == 0 {
		return owners, nil
	}
	if err := s.repo.CreateOwners(ctx, owners...); err != nil {
		return nil, fmt.Errorf("create owners: %w", err)
	}
	return owners, nil
}

func (s *TaxonomyService) UpdateOwner(ctx context.Context, userID, id string, patch core.OwnerPatch) (core.Owner, error) {
	if err := requireUser(userID); err != nil {
		return core.Owner{}, err
	}
	current, err := s.repo.GetOwner(ctx, userID, id)
	if err != nil {
		return core.Owner{}, err
	}
	o := patch.Apply(current)
	if err := o.Validate(); err != nil {
		return core.Owner{}, err
	}

	if core.NameKey(o.Name) != core.NameKey(current.Name) {
		others, err := s.repo.ListOwners(ctx, userID, false)
		if err != nil {
			return core.Owner{}, fmt.Errorf("load owners: %w", err)
		}
		for _, other := range others {
			if other.ID != o.ID && core.NameKey(other.Name) == core.NameKey(o.Name) {
				return core.Owner{}, core.DuplicateError("owner", o.Name)
			}
		}
	}

	if err := s.repo.UpdateOwner(ctx, o); err != nil {
		return core.Owner{}, fmt.Errorf("update owner: %w", err)
	}
	return o, nil
}

func (s *TaxonomyService) DeleteOwner(ctx context.Context, userID, id string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	return s.repo.DeleteOwner(ctx, userID, id)
}
