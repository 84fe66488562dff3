package catalog

// Spec is the performance and dimension record of one Trim. Numeric fields
// are zero when the API did not report them.
type Spec struct {
	Trim          string          `json:"trim"`
	BodyType      string          `json:"bodyType"`
	Engine        EngineSpec      `json:"engine"`
	Performance   PerformanceSpec `json:"performance"`
	Fuel          FuelSpec        `json:"fuel"`
	Dimensions    DimensionSpec   `json:"dimensions"`
	Seats         int             `json:"seats"`
	Brakes        AxleSpec        `json:"brakes"`
	Suspension    AxleSpec        `json:"suspension"`
	Drive         string          `json:"drive"`
	Transmission  string          `json:"transmission"`
	TurningCircle float64         `json:"turningCircle"`
	Series        string          `json:"series,omitempty"`
}

type EngineSpec struct {
	Horsepower   float64 `json:"horsepower"`
	TorqueNm     float64 `json:"torqueNm"`
	RPM          float64 `json:"rpm"`
	FuelType     string  `json:"fuelType"`
	Injection    string  `json:"injection"`
	Layout       string  `json:"layout"`
	Cylinders    int     `json:"cylinders"`
	Displacement float64 `json:"displacement"`
}

type PerformanceSpec struct {
	Acceleration0To100 float64 `json:"acceleration0To100"`
	TopSpeed           float64 `json:"topSpeed"`
	Range              string  `json:"range"`
}

type FuelSpec struct {
	City         float64 `json:"city"`
	Mixed        float64 `json:"mixed"`
	Highway      float64 `json:"highway"`
	TankCapacity float64 `json:"tankCapacity"`
	Grade        string  `json:"grade"`
}

type DimensionSpec struct {
	Length    float64 `json:"length"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Wheelbase float64 `json:"wheelbase"`
	Weight    float64 `json:"weight"`
}

// AxleSpec pairs a front and rear component description.
type AxleSpec struct {
	Front string `json:"front"`
	Rear  string `json:"rear"`
}

// IsZero reports whether nothing was mapped into s.
func (s Spec) IsZero() bool {
	return s == Spec{}
}
