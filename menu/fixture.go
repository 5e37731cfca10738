package menu

// NewTestCatalog returns a small fixed catalog for tests across packages.
// It panics if the fixture is malformed.
func NewTestCatalog() *Catalog {
	c, err := New(TestCategories(), WithCommonModifiers(DefaultCommonModifiers))
	if err != nil {
		panic(err)
	}
	return c
}

// TestCategories returns the categories behind NewTestCatalog.
func TestCategories() []Category {
	return []Category{
		{
			Name: "Breakfast",
			Items: []Item{
				{Name: "Egg McMuffin", OrderableAsBase: true},
				{Name: "Hash Browns", OrderableAsBase: true},
				{Name: "Hotcakes", OrderableAsBase: true, Modifiers: []Modifier{
					{Name: "Sausage", ID: "mod-hotcakes-sausage"},
				}},
			},
		},
		{
			Name: "Beef & Pork",
			Items: []Item{
				{Name: "Big Mac", OrderableAsBase: true},
				{Name: "Quarter Pounder with Cheese", OrderableAsBase: true, Modifiers: []Modifier{
					{Name: "Bacon", ID: "mod-qpc-bacon"},
					{Name: "Deluxe", ID: "mod-qpc-deluxe"},
				}},
				{Name: "Double Cheeseburger", OrderableAsBase: true},
			},
		},
		{
			Name: "Chicken & Fish",
			Items: []Item{
				{Name: "McChicken", OrderableAsBase: true},
				{Name: "Filet-O-Fish", OrderableAsBase: true},
				{Name: "Chicken McNuggets", OrderableAsBase: false, Modifiers: []Modifier{
					{Name: "4 piece", ID: "mod-nuggets-4"},
					{Name: "6 piece", ID: "mod-nuggets-6"},
					{Name: "10 piece", ID: "mod-nuggets-10"},
				}},
			},
		},
		{
			Name: "Snacks & Sides",
			Items: []Item{
				{Name: "Fries", OrderableAsBase: true, Modifiers: []Modifier{
					{Name: "Small", ID: "mod-fries-small"},
					{Name: "Medium", ID: "mod-fries-medium"},
					{Name: "Large", ID: "mod-fries-large"},
				}},
				{Name: "Hash Browns", OrderableAsBase: true},
				{Name: "Apple Slices", OrderableAsBase: true},
			},
		},
		{
			Name: "Desserts",
			Items: []Item{
				{Name: "McFlurry", OrderableAsBase: false, Modifiers: []Modifier{
					{Name: "Oreo", ID: "mod-mcflurry-oreo"},
					{Name: "M&M's", ID: "mod-mcflurry-mms"},
				}},
				{Name: "Baked Apple Pie", OrderableAsBase: true},
			},
		},
		{
			Name: "Beverages",
			Items: []Item{
				{Name: "Coca-Cola", OrderableAsBase: true, Modifiers: []Modifier{
					{Name: "Small", ID: "mod-coke-small"},
					{Name: "Medium", ID: "mod-coke-medium"},
					{Name: "Large", ID: "mod-coke-large"},
				}},
			},
		},
	}
}
