package validation

import (
	"fmt"
	"strings"

	"drivethru/menu"
)

// Config holds the fuzzy-matching knobs.
type Config struct {
	// Threshold is the minimum 0-100 similarity for an item name to be accepted.
	Threshold float64
	// ModifierThreshold is the same bound for modifier names.
	ModifierThreshold float64
	// TieMargin is how far below the top score a candidate may be and still
	// count as tied with it. Zero means only identical scores tie.
	TieMargin float64
	// FoldAccents makes matching accent-insensitive.
	FoldAccents bool
}

// DefaultConfig returns the standard matching configuration.
func DefaultConfig() Config {
	return Config{
		Threshold:         85,
		ModifierThreshold: 85,
		TieMargin:         0,
		FoldAccents:       false,
	}
}

// Result is the outcome of validating one item request. When Valid is
// false, Error carries a message that can be shown to the customer as is.
type Result struct {
	Valid     bool
	Item      *menu.Item
	Modifiers []menu.Modifier
	// Score is the similarity of the item name match, 100 for exact. On a
	// failed match it is the best score any candidate reached.
	Score float64
	Error string
}

// ModifierNames returns the canonical names of the resolved modifiers.
func (r Result) ModifierNames() []string {
	names := make([]string, 0, len(r.Modifiers))
	for _, m := range r.Modifiers {
		names = append(names, m.Name)
	}
	return names
}

func invalid(format string, args ...any) Result {
	return Result{Error: fmt.Sprintf(format, args...)}
}

func (r Result) withScore(score float64) Result {
	r.Score = score
	return r
}

// Validator resolves free-text item requests against a catalog. It holds
// no mutable state and is safe for concurrent use.
type Validator struct {
	catalog *menu.Catalog
	cfg     Config
}

// New returns a Validator over catalog.
func New(catalog *menu.Catalog, cfg Config) *Validator {
	return &Validator{catalog: catalog, cfg: cfg}
}

// Config returns the matching configuration in use.
func (v *Validator) Config() Config { return v.cfg }

// Validate resolves an item name, optionally scoped to a category, and the
// requested modifiers for it. A blank category searches the whole menu.
func (v *Validator) Validate(category, itemName string, modifiers []string) Result {
	itemName = strings.TrimSpace(itemName)
	category = strings.TrimSpace(category)

	if itemName == "" {
		if category == "" {
			return invalid("Item name cannot be empty.")
		}
		return invalid("Item name cannot be empty for category '%s'.", category)
	}

	var (
		res Result
		ok  bool
	)
	if category == "" {
		res, ok = v.resolveAnywhere(itemName)
	} else {
		res, ok = v.resolveInCategory(category, itemName)
	}
	if !ok {
		return res
	}

	return v.resolveModifiers(res, modifiers)
}

func (v *Validator) resolveCategory(category string) (string, bool) {
	if v.catalog.HasCategory(category) {
		return category, true
	}
	want := Normalize(category, v.cfg.FoldAccents)
	for _, name := range v.catalog.AllCategories() {
		if Normalize(name, v.cfg.FoldAccents) == want {
			return name, true
		}
	}
	return "", false
}

func (v *Validator) resolveInCategory(category, itemName string) (Result, bool) {
	canonical, ok := v.resolveCategory(category)
	if !ok {
		return invalid("Category '%s' not found in menu. Available categories: %s.",
			category, strings.Join(v.catalog.AllCategories(), ", ")), false
	}

	if it, ok := v.catalog.GetItem(canonical, itemName); ok {
		return Result{Item: &it, Score: 100}, true
	}

	items := v.catalog.GetCategory(canonical)
	m := bestMatch(itemName, itemNames(items), v.cfg.Threshold, v.cfg.TieMargin, v.cfg.FoldAccents)
	switch {
	case m.ambiguous():
		return invalid("'%s' is ambiguous in category '%s': it matches %s equally well. Which one did you mean?",
			itemName, canonical, quotedList(pick(itemNames(items), m.tied))).withScore(m.score), false
	case !m.found():
		return invalid("No menu item found matching '%s' in category '%s'.", itemName, canonical).withScore(m.score), false
	}

	it := items[m.index]
	return Result{Item: &it, Score: m.score}, true
}

func (v *Validator) resolveAnywhere(itemName string) (Result, bool) {
	if hits := v.catalog.FindItem(itemName); len(hits) == 1 {
		return Result{Item: &hits[0], Score: 100}, true
	}

	items := v.catalog.AllItems()
	m := bestMatch(itemName, itemNames(items), v.cfg.Threshold, v.cfg.TieMargin, v.cfg.FoldAccents)
	switch {
	case m.ambiguous():
		labels := make([]string, 0, len(m.tied))
		for _, i := range m.tied {
			labels = append(labels, fmt.Sprintf("%s (%s)", items[i].Name, items[i].Category))
		}
		return invalid("'%s' matches more than one menu item: %s. Which one did you mean?",
			itemName, quotedList(labels)).withScore(m.score), false
	case !m.found():
		return invalid("No menu item found matching '%s'.", itemName).withScore(m.score), false
	}

	it := items[m.index]
	return Result{Item: &it, Score: m.score}, true
}

func (v *Validator) resolveModifiers(res Result, requested []string) Result {
	it := res.Item

	options := it.Modifiers
	if len(options) == 0 {
		options = v.catalog.CommonModifiers(it.Category)
	}
	names := make([]string, 0, len(options))
	for _, m := range options {
		names = append(names, m.Name)
	}

	resolved := make([]menu.Modifier, 0, len(requested))
	var unknown []string
	for _, raw := range requested {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if len(options) == 0 {
			unknown = append(unknown, raw)
			continue
		}

		m := bestMatch(raw, names, v.cfg.ModifierThreshold, v.cfg.TieMargin, v.cfg.FoldAccents)
		if m.ambiguous() {
			return invalid("Modifier '%s' for '%s' in category '%s' is ambiguous: it matches %s equally well.",
				raw, it.Name, it.Category, quotedList(pick(names, m.tied)))
		}
		if !m.found() {
			unknown = append(unknown, raw)
			continue
		}

		mod := options[m.index]
		if !containsModifier(resolved, mod) {
			resolved = append(resolved, mod)
		}
	}

	if len(unknown) > 0 {
		if len(options) == 0 {
			return invalid("Item '%s' in category '%s' has no modifiers available, but modifiers were requested: %s.",
				it.Name, it.Category, quotedList(unknown))
		}
		return invalid("Invalid modifiers for '%s' in category '%s': %s. Available modifiers: %s.",
			it.Name, it.Category, quotedList(unknown), strings.Join(names, ", "))
	}

	if !it.OrderableAsBase && len(resolved) == 0 {
		return invalid("A selection is required for '%s' in category '%s'. Please choose one of: %s.",
			it.Name, it.Category, strings.Join(it.ModifierNames(), ", "))
	}

	res.Valid = true
	res.Modifiers = resolved
	return res
}

func containsModifier(mods []menu.Modifier, m menu.Modifier) bool {
	for _, x := range mods {
		if x.Equal(m) {
			return true
		}
	}
	return false
}

func itemNames(items []menu.Item) []string {
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Name)
	}
	return names
}

func pick(names []string, idx []int) []string {
	out := make([]string, 0, len(idx))
	for _, i := range idx {
		out = append(out, names[i])
	}
	return out
}

func quotedList(items []string) string {
	quoted := make([]string, 0, len(items))
	for _, s := range items {
		quoted = append(quoted, "'"+s+"'")
	}
	switch len(quoted) {
	case 0:
		return ""
	case 1:
		return quoted[0]
	case 2:
		return quoted[0] + " and " + quoted[1]
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + " and " + quoted[len(quoted)-1]
}
