package mapping

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/WessleyAI/carbrowse/engine/catalog"
)

const defaultEngineCc = 1200

// Synthesizer fills the rental placeholders (mileage, rating, price) that the
// car-spec API does not provide. The values are illustrative only.
type Synthesizer struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

// NewSynthesizer creates a Synthesizer. A nil rnd is seeded from the clock,
// a nil now uses time.Now.
func NewSynthesizer(rnd *rand.Rand, now func() time.Time) *Synthesizer {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if now == nil {
		now = time.Now
	}
	return &Synthesizer{rnd: rnd, now: now}
}

// Age returns the current calendar year minus the car's year, floored at 0.
func (s *Synthesizer) Age(car catalog.Car) int {
	age := s.now().Year() - car.Year
	if age < 0 {
		return 0
	}
	return age
}

// Enrich returns car with synthesized Mileage, Rating and PricePerDay.
func (s *Synthesizer) Enrich(car catalog.Car) catalog.Car {
	age := s.Age(car)
	engine := car.Engine
	if engine <= 0 {
		engine = defaultEngineCc
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var base float64
	switch {
	case age == 0:
		car.Mileage = s.rnd.Intn(10000)
		base = 2200
	case age <= 2:
		car.Mileage = 15000 + s.rnd.Intn(11000)
		base = 1500
	default:
		car.Mileage = 25000 + s.rnd.Intn(25000)
		base = 800
	}
	car.Rating = math.Round((4.2+s.rnd.Float64()*0.6)*10) / 10
	car.PricePerDay = int(math.Floor(base + s.rnd.Float64()*400*float64(engine)/100))
	return car
}
