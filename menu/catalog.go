package menu

import (
	"fmt"
	"strings"
)

// Modifier is a selectable variation of an item, such as "No Pickles" or a
// flavor. Two modifiers are the same modifier when their IDs match.
type Modifier struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// Equal reports whether m and o share an identity.
func (m Modifier) Equal(o Modifier) bool { return m.ID == o.ID }

// Item is a single orderable entry, keyed by (Category, Name).
type Item struct {
	Category        string     `json:"category"`
	Name            string     `json:"name"`
	OrderableAsBase bool       `json:"orderable_as_base"`
	Modifiers       []Modifier `json:"modifiers"`
}

// HasModifier reports whether the item offers a modifier with the given id.
func (it Item) HasModifier(id string) bool {
	for _, m := range it.Modifiers {
		if m.ID == id {
			return true
		}
	}
	return false
}

// ModifierNames returns the display names of the item's modifiers in catalog order.
func (it Item) ModifierNames() []string {
	names := make([]string, 0, len(it.Modifiers))
	for _, m := range it.Modifiers {
		names = append(names, m.Name)
	}
	return names
}

func (it Item) clone() Item {
	out := it
	out.Modifiers = append([]Modifier(nil), it.Modifiers...)
	if out.Modifiers == nil {
		out.Modifiers = []Modifier{}
	}
	return out
}

// Category is one named heading of the menu with its items in display order.
type Category struct {
	Name  string
	Items []Item
}

// Catalog is an immutable, indexed view of a menu. It is never mutated
// after construction and every accessor returns copies, so a single
// Catalog can be shared by any number of concurrent sessions.
type Catalog struct {
	names      []string
	categories map[string][]Item
	common     map[string][]Modifier
}

// New builds a Catalog from categories, validating structure. Inputs are
// copied; callers may reuse them afterwards.
func New(categories []Category, opts ...Option) (*Catalog, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if len(categories) == 0 {
		return nil, &LoadError{Path: "categories", Err: fmt.Errorf("menu has no categories")}
	}

	c := &Catalog{
		names:      make([]string, 0, len(categories)),
		categories: make(map[string][]Item, len(categories)),
		common:     map[string][]Modifier{},
	}

	for _, cat := range categories {
		path := fmt.Sprintf("categories[%q]", cat.Name)
		if strings.TrimSpace(cat.Name) == "" {
			return nil, &LoadError{Path: "categories", Err: fmt.Errorf("category name is empty")}
		}
		if _, dup := c.categories[cat.Name]; dup {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("duplicate category")}
		}

		items := make([]Item, 0, len(cat.Items))
		seen := map[string]bool{}
		for i, it := range cat.Items {
			itemPath := fmt.Sprintf("%s[%d]", path, i)
			if err := checkItem(it); err != nil {
				return nil, &LoadError{Path: itemPath, Err: err}
			}
			key := strings.ToLower(strings.TrimSpace(it.Name))
			if seen[key] {
				return nil, &LoadError{Path: itemPath, Err: fmt.Errorf("duplicate item %q", it.Name)}
			}
			seen[key] = true

			it = it.clone()
			it.Category = cat.Name
			items = append(items, it)
		}

		c.names = append(c.names, cat.Name)
		c.categories[cat.Name] = items
	}

	for category, names := range o.common {
		mods := make([]Modifier, 0, len(names))
		for _, name := range names {
			mods = append(mods, Modifier{Name: name, ID: CommonModifierID(category, name)})
		}
		c.common[category] = mods
	}

	return c, nil
}

func checkItem(it Item) error {
	if strings.TrimSpace(it.Name) == "" {
		return fmt.Errorf("item name is empty")
	}
	ids := map[string]bool{}
	for j, m := range it.Modifiers {
		if strings.TrimSpace(m.Name) == "" {
			return fmt.Errorf("modifiers[%d]: name is empty", j)
		}
		if m.ID == "" {
			return fmt.Errorf("modifiers[%d]: id is empty", j)
		}
		if ids[m.ID] {
			return fmt.Errorf("modifiers[%d]: duplicate id %q", j, m.ID)
		}
		ids[m.ID] = true
	}
	if !it.OrderableAsBase && len(it.Modifiers) == 0 {
		return fmt.Errorf("item %q requires a selection but offers no modifiers", it.Name)
	}
	return nil
}

// GetCategory returns the items under the exact, case-sensitive category
// key. An unknown category yields an empty slice.
func (c *Catalog) GetCategory(name string) []Item {
	items := c.categories[name]
	out := make([]Item, 0, len(items))
	for _, it := range items {
		out = append(out, it.clone())
	}
	return out
}

// GetItem looks up an item by category and case-insensitive name.
func (c *Catalog) GetItem(category, name string) (Item, bool) {
	name = strings.TrimSpace(name)
	for _, it := range c.categories[category] {
		if strings.EqualFold(it.Name, name) {
			return it.clone(), true
		}
	}
	return Item{}, false
}

// FindItem resolves a case-insensitive item name across all categories.
// It returns every match so callers can detect names that live under more
// than one heading.
func (c *Catalog) FindItem(name string) []Item {
	name = strings.TrimSpace(name)

	var out []Item
	for _, cat := range c.names {
		for _, it := range c.categories[cat] {
			if strings.EqualFold(it.Name, name) {
				out = append(out, it.clone())
			}
		}
	}
	return out
}

// SearchItems returns items whose name contains keyword, case-insensitively,
// in catalog order. An empty category searches every category.
func (c *Catalog) SearchItems(keyword, category string) []Item {
	keyword = strings.ToLower(keyword)

	var out []Item
	for _, name := range c.names {
		if category != "" && name != category {
			continue
		}
		for _, it := range c.categories[name] {
			if strings.Contains(strings.ToLower(it.Name), keyword) {
				out = append(out, it.clone())
			}
		}
	}
	if out == nil {
		out = []Item{}
	}
	return out
}

// AllCategories returns category names in catalog order.
func (c *Catalog) AllCategories() []string {
	return append([]string(nil), c.names...)
}

// AllItems returns every item across categories in catalog order.
func (c *Catalog) AllItems() []Item {
	return c.SearchItems("", "")
}

// HasCategory reports whether name is an exact category key.
func (c *Catalog) HasCategory(name string) bool {
	_, ok := c.categories[name]
	return ok
}

// ItemsCount returns the number of items across all categories.
func (c *Catalog) ItemsCount() int {
	n := 0
	for _, items := range c.categories {
		n += len(items)
	}
	return n
}

// CommonModifiers returns the fallback modifiers for category, used for
// items that define none of their own.
func (c *Catalog) CommonModifiers(category string) []Modifier {
	return append([]Modifier(nil), c.common[category]...)
}
