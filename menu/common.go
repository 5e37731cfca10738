package menu

import (
	"github.com/google/uuid"
)

// modifierNamespace scopes the name-based ids of common modifiers.
var modifierNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("drivethru:menu:modifier"))

// CommonModifierID returns the stable id of a common modifier. The same
// (category, name) pair always yields the same id across processes.
func CommonModifierID(category, name string) string {
	return uuid.NewSHA1(modifierNamespace, []byte(category+"\x00"+name)).String()
}

// DefaultCommonModifiers lists the modifiers customers ask for on items
// that do not carry any variations of their own.
var DefaultCommonModifiers = map[string][]string{
	"Beef & Pork": {
		"Extra Cheese", "No Cheese", "Extra Pickles", "No Pickles",
		"Extra Onions", "No Onions", "Extra Ketchup", "No Ketchup",
		"Extra Mustard", "No Mustard", "Extra Lettuce", "No Lettuce",
		"Extra Tomato", "No Tomato", "Extra Mac Sauce", "No Mac Sauce",
		"Add Bacon", "No Bacon",
	},
	"Chicken & Fish": {
		"Extra Cheese", "No Cheese", "Extra Lettuce", "No Lettuce",
		"Extra Mayo", "No Mayo", "Extra Pickles", "No Pickles",
		"Spicy", "No Sauce", "Extra Sauce", "Add Bacon", "No Bacon",
	},
	"Breakfast": {
		"Egg Whites", "No Egg", "Extra Egg", "Add Bacon", "No Bacon",
		"Add Sausage", "No Sausage", "Extra Cheese", "No Cheese",
		"No Butter", "Extra Hash Brown",
	},
	"Snacks & Sides": {
		"Extra Salt", "No Salt", "Extra Sauce", "No Sauce",
		"Ketchup", "Ranch", "BBQ Sauce", "Sweet & Sour Sauce", "Honey Mustard",
	},
	"Beverages": {
		"No Ice", "Light Ice", "Extra Ice", "No Sugar", "Extra Sugar",
		"No Cream", "Extra Cream",
	},
	"Coffee & Tea": {
		"No Sugar", "Extra Sugar", "No Cream", "Extra Cream",
		"Skim Milk", "Whole Milk", "Almond Milk", "Decaf",
	},
	"Desserts": {
		"Extra Caramel", "Extra Chocolate", "Extra Whipped Cream",
		"No Whipped Cream", "Extra Sprinkles",
	},
	"Smoothies & Shakes": {
		"No Whipped Cream", "Extra Whipped Cream", "No Cherry",
		"Extra Syrup", "Light Syrup",
	},
}

// Option configures catalog construction.
type Option func(*options)

type options struct {
	common map[string][]string
}

// WithCommonModifiers attaches per-category fallback modifiers to the catalog.
func WithCommonModifiers(common map[string][]string) Option {
	return func(o *options) {
		o.common = make(map[string][]string, len(common))
		for cat, names := range common {
			o.common[cat] = append([]string(nil), names...)
		}
	}
}
