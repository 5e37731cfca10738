package order

import (
	"fmt"
	"strings"
)

// Summary renders line items as "2 Big Macs with No Pickles, 1 Fries".
func Summary(items []LineItem) string {
	if len(items) == 0 {
		return "No items"
	}

	parts := make([]string, 0, len(items))
	for _, li := range items {
		name := li.ItemName
		if li.Quantity != 1 {
			name = pluralize(name)
		}
		part := fmt.Sprintf("%d %s", li.Quantity, name)
		if len(li.Modifiers) > 0 {
			part += " with " + strings.Join(li.Modifiers, ", ")
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, ", ")
}

// pluralize applies English plural rules to the last word of a menu item
// name. Names that already read as plural ("Fries", "Hash Browns") or end
// in a size qualifier such as "(Large)" are left alone.
func pluralize(name string) string {
	lower := strings.ToLower(name)
	switch {
	case name == "":
		return name
	case strings.HasSuffix(lower, "s"), strings.HasSuffix(lower, ")"):
		return name
	case strings.HasSuffix(lower, "x"), strings.HasSuffix(lower, "z"),
		strings.HasSuffix(lower, "ch"), strings.HasSuffix(lower, "sh"):
		return name + "es"
	case strings.HasSuffix(lower, "y") && len(lower) > 1 && !isVowel(lower[len(lower)-2]):
		return name[:len(name)-1] + "ies"
	}
	if last := lower[len(lower)-1]; last < 'a' || last > 'z' {
		return name
	}
	return name + "s"
}

func isVowel(b byte) bool {
	return strings.IndexByte("aeiou", b) >= 0
}
