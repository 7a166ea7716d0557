package models

import "strings"

// Category IDs: the fixed set a published question can belong to
const (
	CategoryProductivity      = "productivity"
	CategoryFitnessExercise   = "fitness_exercise"
	CategoryRelationships     = "relationships"
	CategoryGeneralHealth     = "general_health"
	CategoryNutrition         = "nutrition"
	CategorySleep             = "sleep"
	CategoryHomeCleaning      = "home_cleaning"
	CategoryCookingFood       = "cooking_food"
	CategoryMoneyFinance      = "money_finance"
	CategoryMentalHealth      = "mental_health"
	CategoryAnimalsWildlife   = "animals_wildlife"
	CategoryEducationLearning = "education_learning"
	CategoryGeography         = "geography"
	CategoryHistory           = "history"
	CategoryHobbiesDIY        = "hobbies_diy"
	CategoryMiscellaneous     = "miscellaneous"
	CategoryOutdoorNature     = "outdoor_nature"
	CategoryScience           = "science"
)

// Categories lists every valid category ID
var Categories = []string{
	CategoryProductivity,
	CategoryFitnessExercise,
	CategoryRelationships,
	CategoryGeneralHealth,
	CategoryNutrition,
	CategorySleep,
	CategoryHomeCleaning,
	CategoryCookingFood,
	CategoryMoneyFinance,
	CategoryMentalHealth,
	CategoryAnimalsWildlife,
	CategoryEducationLearning,
	CategoryGeography,
	CategoryHistory,
	CategoryHobbiesDIY,
	CategoryMiscellaneous,
	CategoryOutdoorNature,
	CategoryScience,
}

var validCategories = func() map[string]bool {
	m := make(map[string]bool, len(Categories))
	for _, c := range Categories {
		m[c] = true
	}
	return m
}()

// categoryAliases maps common free-text spellings from idea creation to
// category IDs. Ideas arrive with arbitrary category strings; unrecognized
// ones fail validation at generation time.
var categoryAliases = map[string]string{
	"productivity & work":     CategoryProductivity,
	"fitness & exercise":      CategoryFitnessExercise,
	"fitness":                 CategoryFitnessExercise,
	"health & wellness":       CategoryGeneralHealth,
	"general health":          CategoryGeneralHealth,
	"nutrition & diet":        CategoryNutrition,
	"home & cleaning":         CategoryHomeCleaning,
	"cooking":                 CategoryCookingFood,
	"cooking & food":          CategoryCookingFood,
	"money & finance":         CategoryMoneyFinance,
	"mental":                  CategoryMentalHealth,
	"mental health & mindset": CategoryMentalHealth,
	"mental health":           CategoryMentalHealth,
	"animals & wildlife":      CategoryAnimalsWildlife,
	"education & learning":    CategoryEducationLearning,
	"hobbies & diy":           CategoryHobbiesDIY,
	"hobbies":                 CategoryHobbiesDIY,
	"outdoor & nature":        CategoryOutdoorNature,
	"outdoor":                 CategoryOutdoorNature,
	"nature":                  CategoryOutdoorNature,
	"technology":              CategoryScience,
	"travel":                  CategoryScience,
}

// IsValidCategory reports whether id is one of the fixed category IDs
func IsValidCategory(id string) bool {
	return validCategories[id]
}

// NormalizeCategory maps a free-text category string to a category ID.
// Returns the resolved ID and true, or the normalized input and false if
// it does not resolve to a valid category.
func NormalizeCategory(raw string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return "", false
	}
	if alias, ok := categoryAliases[normalized]; ok {
		return alias, true
	}
	if validCategories[normalized] {
		return normalized, true
	}
	return normalized, false
}

// FormatCategoryName renders a category ID for display
// ("fitness_exercise" -> "Fitness Exercise").
func FormatCategoryName(id string) string {
	words := strings.Split(id, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
