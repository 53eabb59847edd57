package calc

import "math"

// Sum is a Neumaier-compensated running sum. The zero value is ready to use.
type Sum struct {
	sum float64
	c   float64
}

func (s *Sum) Add(x float64) {
	t := s.sum + x
	if math.Abs(s.sum) >= math.Abs(x) {
		s.c += (s.sum - t) + x
	} else {
		s.c += (x - t) + s.sum
	}
	s.sum = t
}

// Value returns the compensated total.
func (s Sum) Value() float64 {
	return s.sum + s.c
}

// SumOf returns the compensated sum of xs in order.
func SumOf(xs []float64) float64 {
	var s Sum
	for _, x := range xs {
		s.Add(x)
	}
	return s.Value()
}

func RoundFloat64(number float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(number*p) / p
}

// TwoDecimals rounds a currency amount for display.
func TwoDecimals(number float64) float64 {
	return RoundFloat64(number, 2)
}
