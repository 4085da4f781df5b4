package domain

import "strings"

// Category is a root-cause component class produced by diagnosis.
type Category string

const (
	CategoryBrakes       Category = "Brakes"
	CategoryEngine       Category = "Engine"
	CategoryTransmission Category = "Transmission"
	CategorySteering     Category = "Steering"
	CategorySuspension   Category = "Suspension"
	CategoryTires        Category = "Tires"
	CategoryACSystem     Category = "AC System"
	CategoryInfotainment Category = "Infotainment"
)

// DefaultCategory is substituted whenever a classifier answers outside the set.
const DefaultCategory = CategoryBrakes

// severities holds the safety impact score of each category (1-10).
var severities = map[Category]int{
	CategoryBrakes:       10,
	CategoryEngine:       9,
	CategoryTransmission: 8,
	CategorySteering:     9,
	CategorySuspension:   7,
	CategoryTires:        8,
	CategoryACSystem:     3,
	CategoryInfotainment: 1,
}

// dtcCodes maps categories to the trouble code tracked for recurrence.
var dtcCodes = map[Category]string{
	CategoryBrakes:       "C0204",
	CategoryEngine:       "P0300",
	CategoryTransmission: "P0700",
	CategorySteering:     "C0460",
	CategorySuspension:   "C0691",
	CategoryTires:        "C0750",
	CategoryACSystem:     "B1262",
	CategoryInfotainment: "U0184",
}

// Categories returns the closed category set in a stable order.
func Categories() []Category {
	return []Category{
		CategoryBrakes,
		CategoryEngine,
		CategoryTransmission,
		CategorySteering,
		CategorySuspension,
		CategoryTires,
		CategoryACSystem,
		CategoryInfotainment,
	}
}

// ParseCategory matches raw classifier output against the closed set.
// Surrounding whitespace and quotes are ignored; matching is case-insensitive.
func ParseCategory(raw string) (Category, bool) {
	clean := strings.Trim(strings.TrimSpace(raw), `"'`)
	for _, c := range Categories() {
		if strings.EqualFold(clean, string(c)) {
			return c, true
		}
	}
	return "", false
}

// Severity returns the safety impact score of c, or 0 if c is unknown.
func (c Category) Severity() int {
	return severities[c]
}

// DTCCode returns the trouble code associated with c.
func (c Category) DTCCode() string {
	return dtcCodes[c]
}

// Valid reports whether c belongs to the closed set.
func (c Category) Valid() bool {
	_, ok := severities[c]
	return ok
}
