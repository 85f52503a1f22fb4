// internal/models/profile_update.go
package models

import (
	"github.com/go-playground/validator/v10"
)

// ProfileUpdate carries the fields a caller may change on a stored profile.
// A nil field is left as is; a non-nil empty slice clears the collection.
type ProfileUpdate struct {
	DietaryRestrictions *[]string `json:"dietaryRestrictions,omitempty" validate:"omitempty,max=20,dive,required,max=50"`
	Allergies           *[]string `json:"allergies,omitempty" validate:"omitempty,max=30,dive,required,max=50"`
	FoodHabit           *string   `json:"foodHabit,omitempty" validate:"omitempty,oneof=omnivore vegetarian vegan other non-vegetarian"`
	CuisinePreferences  *[]string `json:"cuisinePreferences,omitempty" validate:"omitempty,max=20,dive,required,max=50"`
	PreferredBrands     *[]string `json:"preferredBrands,omitempty" validate:"omitempty,max=50,dive,required,max=100"`
	Location            *string   `json:"location,omitempty" validate:"omitempty,max=200"`
}

var structValidator = validator.New()

// Validate validates the ProfileUpdate using the validator.
func (u *ProfileUpdate) Validate() error {
	return structValidator.Struct(u)
}

// IsEmpty reports whether the update changes nothing.
func (u *ProfileUpdate) IsEmpty() bool {
	return u.DietaryRestrictions == nil && u.Allergies == nil && u.FoodHabit == nil &&
		u.CuisinePreferences == nil && u.PreferredBrands == nil && u.Location == nil
}

// Apply returns p with the update's non-nil fields written over it, normalized.
func (u *ProfileUpdate) Apply(p UserProfile) UserProfile {
	if u.DietaryRestrictions != nil {
		p.DietaryRestrictions = *u.DietaryRestrictions
	}
	if u.Allergies != nil {
		p.Allergies = *u.Allergies
	}
	if u.FoodHabit != nil {
		p.FoodHabit = FoodHabit(*u.FoodHabit)
	}
	if u.CuisinePreferences != nil {
		p.CuisinePreferences = *u.CuisinePreferences
	}
	if u.PreferredBrands != nil {
		p.PreferredBrands = *u.PreferredBrands
	}
	if u.Location != nil {
		p.Location = *u.Location
	}
	return p.Normalize()
}
