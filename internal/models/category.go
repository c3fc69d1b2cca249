package models

// Category is the fixed classification of an expense.
type Category string

const (
	CategoryFood       Category = "Food"
	CategoryUtility    Category = "Utility"
	CategoryStationary Category = "Stationary"
	CategoryGrocery    Category = "Grocery"
	CategoryClothing   Category = "Clothing"
	CategoryTransport  Category = "Transport"
	CategoryOthers     Category = "Others"
)

var categories = []Category{
	CategoryFood,
	CategoryUtility,
	CategoryStationary,
	CategoryGrocery,
	CategoryClothing,
	CategoryTransport,
	CategoryOthers,
}

// Categories returns every category in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// CategoryStyle is the badge metadata clients use to render a category.
type CategoryStyle struct {
	Category Category `json:"category"`
	Icon     string   `json:"icon"`
	Color    string   `json:"color"`
}

var categoryStyles = map[Category]CategoryStyle{
	CategoryFood:       {Category: CategoryFood, Icon: "coffee", Color: "red"},
	CategoryUtility:    {Category: CategoryUtility, Icon: "zap", Color: "blue"},
	CategoryStationary: {Category: CategoryStationary, Icon: "pencil", Color: "yellow"},
	CategoryGrocery:    {Category: CategoryGrocery, Icon: "shopping-cart", Color: "green"},
	CategoryClothing:   {Category: CategoryClothing, Icon: "shirt", Color: "purple"},
	CategoryTransport:  {Category: CategoryTransport, Icon: "bus", Color: "indigo"},
	CategoryOthers:     {Category: CategoryOthers, Icon: "package", Color: "gray"},
}

// Style returns the badge metadata for c. Unknown categories render as Others.
func (c Category) Style() CategoryStyle {
	if s, ok := categoryStyles[c]; ok {
		return s
	}
	s := categoryStyles[CategoryOthers]
	s.Category = c
	return s
}
