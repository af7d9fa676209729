package models

// Category tags goals, purchase requests and the transactions they produce.
type Category string

const (
	CategoryFood          Category = "food"
	CategoryToys          Category = "toys"
	CategoryGames         Category = "games"
	CategoryBooks         Category = "books"
	CategoryClothes       Category = "clothes"
	CategoryElectronics   Category = "electronics"
	CategoryEntertainment Category = "entertainment"
	CategorySavings       Category = "savings"
	CategoryCharity       Category = "charity"
	CategoryEducation     Category = "education"
	CategoryOther         Category = "other"
)

// Categories lists every valid category.
var Categories = []Category{
	CategoryFood, CategoryToys, CategoryGames, CategoryBooks, CategoryClothes,
	CategoryElectronics, CategoryEntertainment, CategorySavings, CategoryCharity,
	CategoryEducation, CategoryOther,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
