package mapping

import (
	"strconv"
	"strings"

	"dario.cat/mergo"

	"github.com/WessleyAI/carbrowse/engine/catalog"
)

// MapTrimToSpec renames and coerces a /trims/{id} record into a Spec.
func MapTrimToSpec(raw map[string]any) catalog.Spec {
	return catalog.Spec{
		Trim:     ToString(raw["trim"]),
		BodyType: ToString(raw["bodyType"]),
		Series:   ToString(raw["series"]),
		Engine: catalog.EngineSpec{
			Horsepower:   ToNumber(raw["engineHp"]),
			TorqueNm:     ToNumber(raw["maximumTorqueNM"]),
			RPM:          ToNumber(raw["engineHpRpm"]),
			FuelType:     ToString(raw["engineType"]),
			Injection:    ToString(raw["injectionType"]),
			Layout:       ToString(raw["cylinderLayout"]),
			Cylinders:    ToInt(raw["numberOfCylinders"]),
			Displacement: ToNumber(raw["capacityCm3"]),
		},
		Performance: catalog.PerformanceSpec{
			Acceleration0To100: ToNumber(raw["acceleration0To100KmPerHS"]),
			TopSpeed:           ToNumber(raw["maxSpeedKmPerH"]),
			Range:              ToString(raw["rangeKm"]),
		},
		Fuel: catalog.FuelSpec{
			City:         ToNumber(raw["cityFuelPer100KmL"]),
			Mixed:        ToNumber(raw["mixedFuelConsumptionPer100KmL"]),
			Highway:      ToNumber(raw["highwayFuelPer100KmL"]),
			TankCapacity: ToNumber(raw["fuelTankCapacityL"]),
			Grade:        ToString(raw["fuelGrade"]),
		},
		Dimensions: catalog.DimensionSpec{
			Length:    ToNumber(raw["lengthMm"]),
			Width:     ToNumber(raw["widthMm"]),
			Height:    ToNumber(raw["heightMm"]),
			Wheelbase: ToNumber(raw["wheelbaseMm"]),
			Weight:    ToNumber(raw["curbWeightKg"]),
		},
		Seats: ToInt(raw["numberOfSeats"]),
		Brakes: catalog.AxleSpec{
			Front: ToString(raw["frontBrakes"]),
			Rear:  ToString(raw["rearBrakes"]),
		},
		Suspension: catalog.AxleSpec{
			Front: ToString(raw["frontSuspension"]),
			Rear:  ToString(raw["backSuspension"]),
		},
		Drive:         ToString(raw["driveWheels"]),
		Transmission:  ToString(raw["transmission"]),
		TurningCircle: ToNumber(raw["turningCircleM"]),
	}
}

// DetailsFromSpec renders a Spec as detail strings; unknown numbers are "".
func DetailsFromSpec(s catalog.Spec) catalog.Details {
	return catalog.Details{
		Trim:                          s.Trim,
		Series:                        s.Series,
		BodyType:                      s.BodyType,
		LengthMm:                      formatNumber(s.Dimensions.Length),
		WidthMm:                       formatNumber(s.Dimensions.Width),
		HeightMm:                      formatNumber(s.Dimensions.Height),
		WheelbaseMm:                   formatNumber(s.Dimensions.Wheelbase),
		CurbWeightKg:                  formatNumber(s.Dimensions.Weight),
		MaximumTorqueNM:               formatNumber(s.Engine.TorqueNm),
		InjectionType:                 s.Engine.Injection,
		CylinderLayout:                s.Engine.Layout,
		NumberOfCylinders:             formatNumber(float64(s.Engine.Cylinders)),
		EngineHp:                      formatNumber(s.Engine.Horsepower),
		EngineHpRpm:                   formatNumber(s.Engine.RPM),
		DriveWheels:                   s.Drive,
		TurningCircleM:                formatNumber(s.TurningCircle),
		CityFuelPer100KmL:             formatNumber(s.Fuel.City),
		MixedFuelConsumptionPer100KmL: formatNumber(s.Fuel.Mixed),
		HighwayFuelPer100KmL:          formatNumber(s.Fuel.Highway),
		RangeKm:                       s.Performance.Range,
		CapacityCm3:                   formatNumber(s.Engine.Displacement),
		EngineType:                    s.Engine.FuelType,
		FuelTankCapacityL:             formatNumber(s.Fuel.TankCapacity),
		Acceleration0To100KmPerHS:     formatNumber(s.Performance.Acceleration0To100),
		MaxSpeedKmPerH:                formatNumber(s.Performance.TopSpeed),
		FuelGrade:                     s.Fuel.Grade,
		BackSuspension:                s.Suspension.Rear,
		RearBrakes:                    s.Brakes.Rear,
		FrontBrakes:                   s.Brakes.Front,
		FrontSuspension:               s.Suspension.Front,
	}
}

// ApplySpec merges a fetched Spec into car. Non-empty spec values replace
// existing details, and card fields still holding placeholders are filled
// from the spec. Fields the car already knows are kept.
func ApplySpec(car catalog.Car, s catalog.Spec) (catalog.Car, error) {
	if err := mergo.Merge(&car.Details, DetailsFromSpec(s), mergo.WithOverride); err != nil {
		return car, err
	}
	if isPlaceholder(car.Seats) && s.Seats > 0 {
		car.Seats = strconv.Itoa(s.Seats)
	}
	if car.Engine == 0 && s.Engine.Displacement > 0 {
		car.Engine = int(s.Engine.Displacement)
	}
	if isPlaceholder(car.Transmission) && s.Transmission != "" {
		car.Transmission = TransmissionOf(s.Transmission)
	}
	if car.Fuel == catalog.FuelUnknown || car.Fuel == "" {
		car.Fuel = FuelCategoryOf(s.Engine.FuelType)
	}
	if isPlaceholder(car.Type) && s.BodyType != "" {
		car.Type = strings.ToLower(s.BodyType)
	}
	return car, nil
}

func isPlaceholder(s string) bool {
	return s == "" || s == catalog.Placeholder
}

func formatNumber(f float64) string {
	if f == 0 {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
