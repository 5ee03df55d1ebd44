package domain

const kgToLb = 2.2046226218

// Weight units accepted for display.
const (
	UnitKg = "kg"
	UnitLb = "lb"
)

// ValidUnit reports whether u is a supported display unit.
func ValidUnit(u string) bool {
	return u == UnitKg || u == UnitLb
}

// ConvertWeight converts a weight value between "kg" and "lb".
// Returns v unchanged if from == to or if the units are unrecognised.
func ConvertWeight(v float64, from, to string) float64 {
	if from == to {
		return v
	}
	if from == UnitKg && to == UnitLb {
		return v * kgToLb
	}
	if from == UnitLb && to == UnitKg {
		return v / kgToLb
	}
	return v
}

// ConvertTrend returns a copy of points with values and deltas expressed in
// unit. Records are always stored in kilograms.
func ConvertTrend(points []TrendPoint, unit string) []TrendPoint {
	out := make([]TrendPoint, len(points))
	for i, p := range points {
		p.Value = ConvertWeight(p.Value, UnitKg, unit)
		p.Delta = ConvertWeight(p.Delta, UnitKg, unit)
		out[i] = p
	}
	return out
}
