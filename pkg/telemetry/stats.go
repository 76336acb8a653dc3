package telemetry

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarises the buffered entries.
type Stats struct {
	Count           int       `json:"count"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationSeconds float64   `json:"duration_seconds"`
	TempAvg         float64   `json:"temp_avg"`
	TempMin         float64   `json:"temp_min"`
	TempMax         float64   `json:"temp_max"`
	// DistanceAvg is nil when no entry carried a known distance.
	DistanceAvg *float64 `json:"distance_avg"`
}

// Stats computes summary statistics. It returns ErrNoData when the log is
// empty.
func (l *Logger) Stats() (Stats, error) {
	return computeStats(l.Entries())
}

func computeStats(entries []Entry) (Stats, error) {
	if len(entries) == 0 {
		return Stats{}, ErrNoData
	}

	temps := make([]float64, len(entries))
	dists := make([]float64, 0, len(entries))
	for i, e := range entries {
		temps[i] = e.Reading.Temperature
		if e.Reading.Distance.Known() {
			dists = append(dists, e.Reading.Distance.CM)
		}
	}

	start, end := entries[0].Time, entries[len(entries)-1].Time
	s := Stats{
		Count:           len(entries),
		Start:           start,
		End:             end,
		DurationSeconds: end.Sub(start).Seconds(),
		TempAvg:         stat.Mean(temps, nil),
		TempMin:         floats.Min(temps),
		TempMax:         floats.Max(temps),
	}
	if len(dists) > 0 {
		avg := stat.Mean(dists, nil)
		s.DistanceAvg = &avg
	}
	return s, nil
}
