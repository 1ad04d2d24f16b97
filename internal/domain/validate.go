package domain

import (
	"fmt"
	"strings"
	"time"
)

const MinYear = 1980

var (
	FuelTypes     = []string{"Gasoline", "Ethanol", "Diesel", "Flex", "Electric"}
	Transmissions = []string{"Manual", "Automatic"}
)

func oneOf(v string, set []string) bool {
	for _, s := range set {
		if v == s {
			return true
		}
	}
	return false
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidListing, fmt.Sprintf(format, args...))
}

func checkYear(year int, now time.Time) error {
	if maxYear := now.Year() + 1; year < MinYear || year > maxYear {
		return invalid("year must be between %d and %d", MinYear, maxYear)
	}
	return nil
}

func checkPhotos(photos []string) error {
	for i, p := range photos {
		if strings.TrimSpace(p) == "" {
			return invalid("photos[%d] is empty", i)
		}
	}
	return nil
}

// Validate checks the form-level conventions of a new listing. The store never
// calls this; it is applied at the boundary before Create.
func (f ListingFields) Validate(now time.Time) error {
	if strings.TrimSpace(f.Make) == "" {
		return invalid("make is required")
	}
	if strings.TrimSpace(f.Model) == "" {
		return invalid("model is required")
	}
	if err := checkYear(f.Year, now); err != nil {
		return err
	}
	if f.Price < 0 {
		return invalid("price must not be negative")
	}
	if f.Mileage < 0 {
		return invalid("mileage must not be negative")
	}
	if !oneOf(f.FuelType, FuelTypes) {
		return invalid("fuel_type must be one of %s", strings.Join(FuelTypes, ", "))
	}
	if !oneOf(f.Transmission, Transmissions) {
		return invalid("transmission must be one of %s", strings.Join(Transmissions, ", "))
	}
	return checkPhotos(f.Photos)
}

// Validate checks only the fields present in the patch.
func (p ListingPatch) Validate(now time.Time) error {
	if p.Make != nil && strings.TrimSpace(*p.Make) == "" {
		return invalid("make must not be empty")
	}
	if p.Model != nil && strings.TrimSpace(*p.Model) == "" {
		return invalid("model must not be empty")
	}
	if p.Year != nil {
		if err := checkYear(*p.Year, now); err != nil {
			return err
		}
	}
	if p.Price != nil && *p.Price < 0 {
		return invalid("price must not be negative")
	}
	if p.Mileage != nil && *p.Mileage < 0 {
		return invalid("mileage must not be negative")
	}
	if p.FuelType != nil && !oneOf(*p.FuelType, FuelTypes) {
		return invalid("fuel_type must be one of %s", strings.Join(FuelTypes, ", "))
	}
	if p.Transmission != nil && !oneOf(*p.Transmission, Transmissions) {
		return invalid("transmission must be one of %s", strings.Join(Transmissions, ", "))
	}
	if p.Photos != nil {
		return checkPhotos(*p.Photos)
	}
	return nil
}
