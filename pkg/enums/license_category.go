package enums

import "fmt"

// LicenseCategory is the top level of the license catalog.
type LicenseCategory string

const (
	LicenseCategoryKonkurranse       LicenseCategory = "KONKURRANSE"
	LicenseCategoryTrening           LicenseCategory = "TRENING"
	LicenseCategoryBanedag           LicenseCategory = "BANEDAG"
	LicenseCategoryPassasjerLedsager LicenseCategory = "PASSASJER_LEDSAGER"
	LicenseCategoryTest              LicenseCategory = "TEST"
)

var validLicenseCategories = []LicenseCategory{
	LicenseCategoryKonkurranse,
	LicenseCategoryTrening,
	LicenseCategoryBanedag,
	LicenseCategoryPassasjerLedsager,
	LicenseCategoryTest,
}

var licenseCategoryLabels = map[LicenseCategory]string{
	LicenseCategoryKonkurranse:       "Konkurranse",
	LicenseCategoryTrening:           "Trening",
	LicenseCategoryBanedag:           "Banedag",
	LicenseCategoryPassasjerLedsager: "Passasjer/Ledsager",
	LicenseCategoryTest:              "Test",
}

// String implements fmt.Stringer.
func (c LicenseCategory) String() string {
	return string(c)
}

// Label returns the human-readable Norwegian label for the category.
func (c LicenseCategory) Label() string {
	if label, ok := licenseCategoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// IsValid reports whether the value is a known LicenseCategory.
func (c LicenseCategory) IsValid() bool {
	for _, candidate := range validLicenseCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// LicenseCategories returns every known category in catalog order.
func LicenseCategories() []LicenseCategory {
	out := make([]LicenseCategory, len(validLicenseCategories))
	copy(out, validLicenseCategories)
	return out
}

// ParseLicenseCategory converts raw input into a LicenseCategory.
func ParseLicenseCategory(value string) (LicenseCategory, error) {
	for _, candidate := range validLicenseCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid license category %q", value)
}
