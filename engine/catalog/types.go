// Package catalog defines the car hierarchy (make, model, generation, trim,
// spec) and the Car view entity built from it.
package catalog

import "strconv"

// Make is a vehicle manufacturer. Root of the hierarchy.
type Make struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Model is a named vehicle line under a Make.
type Model struct {
	ID       int    `json:"id"`
	MakeID   int    `json:"makeId,omitempty"`
	Name     string `json:"name"`
	YearFrom int    `json:"yearFrom,omitempty"`
	YearTo   *int   `json:"yearTo,omitempty"`
}

// Generation is a production era of a Model.
type Generation struct {
	ID       int    `json:"id"`
	ModelID  int    `json:"modelId,omitempty"`
	Name     string `json:"name"`
	YearFrom int    `json:"yearFrom,omitempty"`
	YearTo   *int   `json:"yearTo,omitempty"`
}

// Trim is one configuration within a Generation.
type Trim struct {
	ID           int    `json:"id"`
	GenerationID int    `json:"generationId,omitempty"`
	Trim         string `json:"trim"`
	BodyType     string `json:"bodyType"`
}

// FuelCategory classifies a car's fuel.
type FuelCategory string

const (
	FuelPetrol   FuelCategory = "petrol"
	FuelDiesel   FuelCategory = "diesel"
	FuelElectric FuelCategory = "electric"
	FuelHybrid   FuelCategory = "hybrid"
	FuelUnknown  FuelCategory = "unknown"
)

// Transmission values shown on a car card.
const (
	TransmissionAutomatic = "Automatic"
	TransmissionManual    = "Manual"
	// Placeholder is the display value for any field not known yet.
	Placeholder = "—"
)

// Status is a car's rental availability.
type Status string

const (
	StatusAvailable Status = "available"
	StatusSold      Status = "sold"
	StatusReserved  Status = "reserved"
)

// PlaceholderImage is used until a real image is looked up.
const PlaceholderImage = "/cars/placeholder.webp"

// Car is the normalized entity the browsing layer filters, sorts and shows.
// Engine, Mileage, PricePerDay and Rating use zero for "unknown".
type Car struct {
	ID           int          `json:"id"`
	Make         string       `json:"make"`
	Model        string       `json:"model"`
	ModelID      int          `json:"modelId"`
	Year         int          `json:"year"`
	YearTo       *int         `json:"yearTo,omitempty"`
	Image        string       `json:"image"`
	Fuel         FuelCategory `json:"fuel"`
	Type         string       `json:"type"`
	Engine       int          `json:"engine"`
	Transmission string       `json:"transmission"`
	PricePerDay  int          `json:"pricePerDay"`
	Mileage      int          `json:"mileage"`
	Rating       float64      `json:"rating"`
	Seats        string       `json:"numberOfSeats"`
	Status       Status       `json:"status"`
	IsFeatured   bool         `json:"isFeatured"`
	Details      Details      `json:"details"`
	Features     []string     `json:"features,omitempty"`
	Location     string       `json:"location,omitempty"`
}

// YearRange renders the production span, e.g. "2019–2023" or "2019–".
func (c Car) YearRange() string {
	s := strconv.Itoa(c.Year) + "–"
	if c.YearTo != nil && *c.YearTo != 0 {
		s += strconv.Itoa(*c.YearTo)
	}
	return s
}

// Details holds the optional spec strings shown in the detail view. Empty
// means not loaded.
type Details struct {
	Trim                          string `json:"trim,omitempty"`
	Series                        string `json:"series,omitempty"`
	BodyType                      string `json:"bodyType,omitempty"`
	LengthMm                      string `json:"lengthMm,omitempty"`
	WidthMm                       string `json:"widthMm,omitempty"`
	HeightMm                      string `json:"heightMm,omitempty"`
	WheelbaseMm                   string `json:"wheelbaseMm,omitempty"`
	FrontTrackMm                  string `json:"frontTrackMm,omitempty"`
	RearTrackMm                   string `json:"rearTrackMm,omitempty"`
	CurbWeightKg                  string `json:"curbWeightKg,omitempty"`
	MaximumTorqueNM               string `json:"maximumTorqueNM,omitempty"`
	InjectionType                 string `json:"injectionType,omitempty"`
	CylinderLayout                string `json:"cylinderLayout,omitempty"`
	NumberOfCylinders             string `json:"numberOfCylinders,omitempty"`
	ValvesPerCylinder             string `json:"valvesPerCylinder,omitempty"`
	TurnoverOfMaximumTorqueRpm    string `json:"turnoverOfMaximumTorqueRpm,omitempty"`
	EngineHp                      string `json:"engineHp,omitempty"`
	EngineHpRpm                   string `json:"engineHpRpm,omitempty"`
	DriveWheels                   string `json:"driveWheels,omitempty"`
	TurningCircleM                string `json:"turningCircleM,omitempty"`
	CityFuelPer100KmL             string `json:"cityFuelPer100KmL,omitempty"`
	MixedFuelConsumptionPer100KmL string `json:"mixedFuelConsumptionPer100KmL,omitempty"`
	HighwayFuelPer100KmL          string `json:"highwayFuelPer100KmL,omitempty"`
	RangeKm                       string `json:"rangeKm,omitempty"`
	CapacityCm3                   string `json:"capacityCm3,omitempty"`
	EngineType                    string `json:"engineType,omitempty"`
	FuelTankCapacityL             string `json:"fuelTankCapacityL,omitempty"`
	Acceleration0To100KmPerHS     string `json:"acceleration0To100KmPerHS,omitempty"`
	MaxSpeedKmPerH                string `json:"maxSpeedKmPerH,omitempty"`
	FuelGrade                     string `json:"fuelGrade,omitempty"`
	BackSuspension                string `json:"backSuspension,omitempty"`
	RearBrakes                    string `json:"rearBrakes,omitempty"`
	FrontBrakes                   string `json:"frontBrakes,omitempty"`
	FrontSuspension               string `json:"frontSuspension,omitempty"`
}
