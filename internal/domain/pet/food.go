package pet

import "time"

// FoodDefinition provides metadata about a food kind.
type FoodDefinition struct {
	Name       string
	Nutrition  float64 // hunger restoration
	Cheer      float64 // happiness restoration
	PoopChance float64 // probability of spawning a dropping
	Cooldown   time.Duration
}

// Foods contains all known food kinds and their properties.
var Foods = map[FoodKind]FoodDefinition{
	FoodMeal: {
		Name:       "Meal",
		Nutrition:  0.25,
		Cheer:      0.05,
		PoopChance: 0.30,
		Cooldown:   30 * time.Second,
	},
	FoodSnack: {
		Name:       "Snack",
		Nutrition:  0.10,
		Cheer:      0.10,
		PoopChance: 0.10,
		Cooldown:   30 * time.Second,
	},
}

// GetFood returns the definition for a food kind.
func GetFood(k FoodKind) (FoodDefinition, bool) {
	def, ok := Foods[k]
	return def, ok
}
