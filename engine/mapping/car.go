package mapping

import (
	"strings"

	"github.com/WessleyAI/carbrowse/engine/catalog"
)

// MapModelToCar builds the card for a model before any trim is known. It is
// deterministic: unknown fields get placeholders and numbers stay zero.
func MapModelToCar(m catalog.Model, index int) catalog.Car {
	id := m.ID
	if id == 0 {
		id = index
	}
	name := m.Name
	if name == "" {
		name = "Unknown Model"
	}
	return catalog.Car{
		ID:           id,
		ModelID:      id,
		Model:        name,
		Year:         m.YearFrom,
		YearTo:       nonZero(m.YearTo),
		Image:        catalog.PlaceholderImage,
		Fuel:         catalog.FuelUnknown,
		Type:         catalog.Placeholder,
		Transmission: catalog.Placeholder,
		Seats:        catalog.Placeholder,
		Status:       catalog.StatusAvailable,
	}
}

// MapAPICarToInternalCar maps a flat trim record into a Car. modelID wins
// over the record's own modelId when non-zero. No placeholder pricing is
// generated here; see Synthesizer.
func MapAPICarToInternalCar(raw map[string]any, index, modelID int) catalog.Car {
	id := index
	if v, ok := raw["id"]; ok && v != nil {
		id = ToInt(v)
	}
	if modelID == 0 {
		modelID = ToInt(raw["modelId"])
	}
	if modelID == 0 {
		modelID = id
	}

	body := firstNonEmpty(ToString(raw["bodyType"]), ToString(raw["series"]), "hatchback")
	engine := ToInt(raw["capacityCm3"])
	if engine == 0 {
		engine = defaultEngineCc
	}
	var yearTo *int
	if y := ToInt(raw["yearTo"]); y != 0 {
		yearTo = &y
	}

	details := DetailsFromRaw(raw)
	details.BodyType = body

	return catalog.Car{
		ID:           id,
		Make:         firstNonEmpty(ToString(raw["make"]), "Unknown"),
		Model:        firstNonEmpty(ToString(raw["model"]), "Model"),
		ModelID:      modelID,
		Year:         ToInt(raw["yearFrom"]),
		YearTo:       yearTo,
		Image:        catalog.PlaceholderImage,
		Fuel:         FuelCategoryOf(ToString(raw["engineType"])),
		Type:         strings.ToLower(body),
		Engine:       engine,
		Transmission: TransmissionOf(ToString(raw["transmission"])),
		Seats:        firstNonEmpty(ToString(raw["numberOfSeats"]), "4"),
		Status:       catalog.StatusAvailable,
		Details:      details,
	}
}

// FuelCategoryOf classifies a free-text engine type. The first match in the
// order electric, hybrid, diesel, petrol wins.
func FuelCategoryOf(engineType string) catalog.FuelCategory {
	s := strings.ToLower(engineType)
	switch {
	case strings.Contains(s, "electric"):
		return catalog.FuelElectric
	case strings.Contains(s, "hybrid"):
		return catalog.FuelHybrid
	case strings.Contains(s, "diesel"):
		return catalog.FuelDiesel
	case strings.Contains(s, "petrol"), strings.Contains(s, "gasoline"):
		return catalog.FuelPetrol
	}
	return catalog.FuelUnknown
}

// TransmissionOf maps a gearbox description to Automatic or Manual.
func TransmissionOf(s string) string {
	s = strings.ToLower(s)
	if strings.Contains(s, "auto") || strings.Contains(s, "cvt") {
		return catalog.TransmissionAutomatic
	}
	return catalog.TransmissionManual
}

// detailFields lists the raw record keys copied verbatim into Details.
var detailFields = []struct {
	key string
	dst func(*catalog.Details) *string
}{
	{"trim", func(d *catalog.Details) *string { return &d.Trim }},
	{"series", func(d *catalog.Details) *string { return &d.Series }},
	{"bodyType", func(d *catalog.Details) *string { return &d.BodyType }},
	{"lengthMm", func(d *catalog.Details) *string { return &d.LengthMm }},
	{"widthMm", func(d *catalog.Details) *string { return &d.WidthMm }},
	{"heightMm", func(d *catalog.Details) *string { return &d.HeightMm }},
	{"wheelbaseMm", func(d *catalog.Details) *string { return &d.WheelbaseMm }},
	{"frontTrackMm", func(d *catalog.Details) *string { return &d.FrontTrackMm }},
	{"rearTrackMm", func(d *catalog.Details) *string { return &d.RearTrackMm }},
	{"curbWeightKg", func(d *catalog.Details) *string { return &d.CurbWeightKg }},
	{"maximumTorqueNM", func(d *catalog.Details) *string { return &d.MaximumTorqueNM }},
	{"injectionType", func(d *catalog.Details) *string { return &d.InjectionType }},
	{"cylinderLayout", func(d *catalog.Details) *string { return &d.CylinderLayout }},
	{"numberOfCylinders", func(d *catalog.Details) *string { return &d.NumberOfCylinders }},
	{"valvesPerCylinder", func(d *catalog.Details) *string { return &d.ValvesPerCylinder }},
	{"turnoverOfMaximumTorqueRpm", func(d *catalog.Details) *string { return &d.TurnoverOfMaximumTorqueRpm }},
	{"engineHp", func(d *catalog.Details) *string { return &d.EngineHp }},
	{"engineHpRpm", func(d *catalog.Details) *string { return &d.EngineHpRpm }},
	{"driveWheels", func(d *catalog.Details) *string { return &d.DriveWheels }},
	{"turningCircleM", func(d *catalog.Details) *string { return &d.TurningCircleM }},
	{"cityFuelPer100KmL", func(d *catalog.Details) *string { return &d.CityFuelPer100KmL }},
	{"mixedFuelConsumptionPer100KmL", func(d *catalog.Details) *string { return &d.MixedFuelConsumptionPer100KmL }},
	{"highwayFuelPer100KmL", func(d *catalog.Details) *string { return &d.HighwayFuelPer100KmL }},
	{"rangeKm", func(d *catalog.Details) *string { return &d.RangeKm }},
	{"capacityCm3", func(d *catalog.Details) *string { return &d.CapacityCm3 }},
	{"engineType", func(d *catalog.Details) *string { return &d.EngineType }},
	{"fuelTankCapacityL", func(d *catalog.Details) *string { return &d.FuelTankCapacityL }},
	{"acceleration0To100KmPerHS", func(d *catalog.Details) *string { return &d.Acceleration0To100KmPerHS }},
	{"maxSpeedKmPerH", func(d *catalog.Details) *string { return &d.MaxSpeedKmPerH }},
	{"fuelGrade", func(d *catalog.Details) *string { return &d.FuelGrade }},
	{"backSuspension", func(d *catalog.Details) *string { return &d.BackSuspension }},
	{"rearBrakes", func(d *catalog.Details) *string { return &d.RearBrakes }},
	{"frontBrakes", func(d *catalog.Details) *string { return &d.FrontBrakes }},
	{"frontSuspension", func(d *catalog.Details) *string { return &d.FrontSuspension }},
}

// DetailsFromRaw copies the known spec keys of a trim record as strings.
func DetailsFromRaw(raw map[string]any) catalog.Details {
	var d catalog.Details
	for _, f := range detailFields {
		*f.dst(&d) = ToString(raw[f.key])
	}
	return d
}

func nonZero(p *int) *int {
	if p == nil || *p == 0 {
		return nil
	}
	v := *p
	return &v
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
