// Package bench samples device operations over a range of indices and
// reduces each sample set to a mean, a corrected standard deviation and a
// trimmed mean that drops outliers beyond two standard deviations.
package bench

import "math"

// Stats summarizes one set of timing samples, in nanoseconds.
type Stats struct {
	Mean        float64 `json:"mean" msgpack:"mean"`
	StdDev      float64 `json:"stddev" msgpack:"stddev"`
	TrimmedMean float64 `json:"trimmed_mean" msgpack:"trimmed_mean"`
	// Kept is the number of samples strictly inside mean ± 2·StdDev.
	Kept int `json:"kept" msgpack:"kept"`
}

// Summarize computes Stats over samples. The standard deviation uses the
// n-1 correction. When no sample lies strictly inside the two-sigma band,
// which happens when all samples are equal, the trimmed mean is the mean.
func Summarize(samples []float64) Stats {
	n := len(samples)
	if n == 0 {
		return Stats{}
	}
	var s Stats
	for _, v := range samples {
		s.Mean += v
	}
	s.Mean /= float64(n)

	if n > 1 {
		var sq float64
		for _, v := range samples {
			d := v - s.Mean
			sq += d * d
		}
		s.StdDev = math.Sqrt(sq / float64(n-1))
	}

	lo, hi := s.Mean-2*s.StdDev, s.Mean+2*s.StdDev
	var sum float64
	for _, v := range samples {
		if lo < v && v < hi {
			sum += v
			s.Kept++
		}
	}
	if s.Kept == 0 {
		s.TrimmedMean = s.Mean
		return s
	}
	s.TrimmedMean = sum / float64(s.Kept)
	return s
}
