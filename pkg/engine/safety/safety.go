// Package safety grades time-dependent top-event probabilities against
// the IEC 61508 safety integrity level bands.
package safety

import "fmt"

// Metric selects the band table used for grading.
type Metric string

const (
	// MetricPFDAvg grades the average probability of failure on demand.
	MetricPFDAvg Metric = "pfd-avg"
	// MetricPFH grades the average frequency of dangerous failure per hour.
	MetricPFH Metric = "pfh"
)

// Band is one probability decade of the integrity scale. Level 0 bands
// bound the scale on both sides and carry no integrity claim.
type Band struct {
	Level int     `json:"level"`
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
}

// Point is one sample of the top-event probability curve.
type Point struct {
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

// Summary is the graded probability curve over the mission time.
type Summary struct {
	Metric    Metric    `json:"metric"`
	Points    []Point   `json:"points"`
	Average   float64   `json:"average"`
	Level     int       `json:"level"`
	Fractions []float64 `json:"fractions"`
	Bands     []Band    `json:"bands"`
}

// pfdBands and pfhBands follow IEC 61508-1 tables 2 and 3. The scale is
// open on both ends, closed with bounding bands at level 0.
var pfdBands = []Band{
	{Level: 0, Low: 0, High: 1e-5},
	{Level: 4, Low: 1e-5, High: 1e-4},
	{Level: 3, Low: 1e-4, High: 1e-3},
	{Level: 2, Low: 1e-3, High: 1e-2},
	{Level: 1, Low: 1e-2, High: 1e-1},
	{Level: 0, Low: 1e-1, High: 1},
}

var pfhBands = []Band{
	{Level: 0, Low: 0, High: 1e-9},
	{Level: 4, Low: 1e-9, High: 1e-8},
	{Level: 3, Low: 1e-8, High: 1e-7},
	{Level: 2, Low: 1e-7, High: 1e-6},
	{Level: 1, Low: 1e-6, High: 1e-5},
	{Level: 0, Low: 1e-5, High: 1},
}

func bandsFor(metric Metric) ([]Band, error) {
	switch metric {
	case MetricPFDAvg:
		return pfdBands, nil
	case MetricPFH:
		return pfhBands, nil
	default:
		return nil, fmt.Errorf("unknown safety metric %q", metric)
	}
}

// Grade returns the band index holding the value. Values at a band
// boundary fall into the higher decade.
func Grade(bands []Band, value float64) int {
	for i, b := range bands {
		if value >= b.Low && value < b.High {
			return i
		}
	}
	return len(bands) - 1
}

// Evaluate samples eval at t = 0, timeStep, 2*timeStep, ... up to
// missionTime and grades the curve. The last sample always lands on
// missionTime exactly, so the final step may be shorter than timeStep.
// The per-band fractions are weighted by the time spent in each band
// and sum to 1; the t = 0 sample carries no weight.
func Evaluate(eval func(t float64) float64, missionTime, timeStep float64, metric Metric) (*Summary, error) {
	bands, err := bandsFor(metric)
	if err != nil {
		return nil, err
	}
	if missionTime <= 0 {
		return nil, fmt.Errorf("mission time must be positive, got %v", missionTime)
	}
	if timeStep <= 0 || timeStep > missionTime {
		timeStep = missionTime
	}

	points := []Point{{Time: 0, Value: eval(0)}}
	for t := timeStep; t < missionTime; t += timeStep {
		points = append(points, Point{Time: t, Value: eval(t)})
	}
	points = append(points, Point{Time: missionTime, Value: eval(missionTime)})

	fractions := make([]float64, len(bands))
	var weighted float64
	prev := 0.0
	for _, pt := range points {
		dt := pt.Time - prev
		weighted += pt.Value * dt
		fractions[Grade(bands, pt.Value)] += dt / missionTime
		prev = pt.Time
	}
	avg := weighted / missionTime

	return &Summary{
		Metric:    metric,
		Points:    points,
		Average:   avg,
		Level:     bands[Grade(bands, avg)].Level,
		Fractions: fractions,
		Bands:     bands,
	}, nil
}
