package core

import "strings"

// OwnerPalette is the fixed set of presentation colors an owner can carry.
var OwnerPalette = []string{
	"#ef4444",
	"#f97316",
	"#eab308",
	"#22c55e",
	"#06b6d4",
	"#3b82f6",
	"#8b5cf6",
	"#ec4899",
	"#6b7280",
	"#0d9488",
}

func IsPaletteColor(c string) bool {
	c = strings.ToLower(strings.TrimSpace(c))
	for _, p := range OwnerPalette {
		if p == c {
			return true
		}
	}
	return false
}

// NextOwnerColor picks the first palette color not in used, or the first
// palette color once every color is taken.
func NextOwnerColor(used []string) string {
	taken := make(map[string]struct{}, len(used))
	for _, c := range used {
		taken[strings.ToLower(c)] = struct{}{}
	}
	for _, p := range OwnerPalette {
		if _, ok := taken[p]; !ok {
			return p
		}
	}
	return OwnerPalette[0]
}

// NameKey is the case-normalized form used for uniqueness checks.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// AccountKey combines the normalized name with the account type.
func AccountKey(name string, t AccountType) string {
	return NameKey(name) + "\x00" + string(t)
}

// DuplicateChecker detects collisions against existing entities and
// entries already accepted in the same batch.
type DuplicateChecker struct {
	seen map[string]struct{}
}

func NewDuplicateChecker(existingKeys ...string) *DuplicateChecker {
	d := &DuplicateChecker{seen: make(map[string]struct{}, len(existingKeys))}
	for _, k := range existingKeys {
		d.seen[k] = struct{}{}
	}
	return d
}

// Add records key and reports false if it was already present.
func (d *DuplicateChecker) Add(key string) bool {
	if _, ok := d.seen[key]; ok {
		return false
	}
	d.seen[key] = struct{}{}
	return true
}

func CategoryKeys(cats []Category) []string {
	keys := make([]string, 0, len(cats))
	for _, c := range cats {
		keys = append(keys, NameKey(c.Name))
	}
	return keys
}

func AccountKeys(accts []Account) []string {
	keys := make([]string, 0, len(accts))
	for _, a := range accts {
		keys = append(keys, AccountKey(a.Name, a.Type))
	}
	return keys
}

func OwnerKeys(owners []Owner) []string {
	keys := make([]string, 0, len(owners))
	for _, o := range owners {
		keys = append(keys, NameKey(o.Name))
	}
	return keys
}

// CategoryInput, AccountInput and OwnerInput describe entities to create.
type CategoryInput struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
}

type AccountInput struct {
	Name string      `json:"name"`
	Type AccountType `json:"account_type"`
}

type OwnerInput struct {
	Name     string `json:"name"`
	ColorTag string `json:"color_tag"`
}

// DefaultCashAccountName is offered during onboarding when no account exists yet.
const DefaultCashAccountName = "Efectivo"
