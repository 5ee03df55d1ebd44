package domain

// TrendPoint is a weight record together with its change against the next
// older record. The oldest record in a snapshot has HasDelta == false.
type TrendPoint struct {
	WeightRecord
	Delta    float64 `json:"delta"`
	HasDelta bool    `json:"hasDelta"`
	Gain     bool    `json:"gain"`
}

// ComputeTrend derives trend points from a newest-first snapshot.
func ComputeTrend(records []WeightRecord) []TrendPoint {
	out := make([]TrendPoint, len(records))
	for i, r := range records {
		p := TrendPoint{WeightRecord: r}
		if i+1 < len(records) {
			p.Delta = r.Value - records[i+1].Value
			p.HasDelta = true
			p.Gain = p.Delta > 0
		}
		out[i] = p
	}
	return out
}
