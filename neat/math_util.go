package neat

import (
	"math"
	"math/rand"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// clamp restricts a value to a given range [minVal, maxVal].
func clamp(value, minVal, maxVal float64) float64 {
	return math.Max(minVal, math.Min(value, maxVal))
}

// parseBoolAttribute parses common string representations of booleans.
// Handles true/false, yes/no, on/off, 1/0, and random.
func parseBoolAttribute(valStr string) bool {
	valStr = strings.ToLower(strings.TrimSpace(valStr))
	if valStr == "true" || valStr == "yes" || valStr == "on" || valStr == "1" {
		return true
	}
	if valStr == "random" || valStr == "none" {
		return rand.Float64() < 0.5 // Randomize at initialization time if config says 'random'
	}
	return false
}

// --- Statistical Functions ---
//
// Mean/Stdev/Sum/MaxFloat/MinFloat now wrap gonum/stat and gonum/floats
// rather than the hand-rolled single-pass loops: gonum is already pulled in
// for graph work, so the numerically careful implementations there are
// preferred over re-deriving them. Median sorts a copy and reads the middle.

// Mean calculates the average of a slice of float64 values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	return stat.Mean(values, nil)
}

// Stdev calculates the sample standard deviation of a slice of float64 values.
func Stdev(values []float64) float64 {
	if len(values) < 2 {
		return 0.0 // Standard deviation is undefined for less than 2 values
	}
	return stat.StdDev(values, nil)
}

// Sum calculates the sum of a slice of float64 values.
func Sum(values []float64) float64 {
	return floats.Sum(values)
}

// MaxFloat calculates the maximum value in a slice of float64 values.
// Returns negative infinity if the slice is empty.
func MaxFloat(values []float64) float64 {
	if len(values) == 0 {
		return math.Inf(-1)
	}
	return floats.Max(values)
}

// MinFloat calculates the minimum value in a slice of float64 values.
// Returns positive infinity if the slice is empty.
func MinFloat(values []float64) float64 {
	if len(values) == 0 {
		return math.Inf(1)
	}
	return floats.Min(values)
}

// Median calculates the median of a slice of float64 values: the middle
// value for an odd length, the mean of the two middle values for an even
// length. Returns NaN if the slice is empty.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return math.NaN()
	}
	sortedValues := make([]float64, n)
	copy(sortedValues, values)
	sort.Float64s(sortedValues)
	if n%2 == 1 {
		return sortedValues[n/2]
	}
	return (sortedValues[n/2-1] + sortedValues[n/2]) / 2
}

// l2Norm returns the Euclidean norm of values, used by gradient-norm clipping.
func l2Norm(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	return floats.Norm(values, 2)
}

// percentileThreshold returns the absolute-value threshold at rank
// floor((p/100)*n) - 1, clamped into [0, n-1], over the ascending-sorted
// absolute values of values. p is in [0, 100]. Used by percentile-mode
// gradient clipping.
func percentileThreshold(values []float64, p float64) float64 {
	n := len(values)
	if n == 0 {
		return 0.0
	}
	abs := make([]float64, n)
	for i, v := range values {
		abs[i] = math.Abs(v)
	}
	sort.Float64s(abs)
	rank := int(math.Floor(p/100.0*float64(n))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank > n-1 {
		rank = n - 1
	}
	return abs[rank]
}

// StatFunctions maps function names to the actual statistical functions.
// Used by Stagnation config.
var StatFunctions = map[string]func([]float64) float64{
	"mean":   Mean,
	"stdev":  Stdev,
	"sum":    Sum,
	"max":    MaxFloat,
	"min":    MinFloat,
	"median": Median,
}

// --- Cantor pairing (innovation ids) ---

// zigzagEncode maps a signed integer bijectively onto the naturals so
// Cantor pairing, which is defined over non-negative integers, can be
// applied to node keys that may be negative (input nodes use negative
// keys by the GenomeConfig.InputKeys convention).
func zigzagEncode(n int) int64 {
	if n >= 0 {
		return int64(n) * 2
	}
	return -int64(n)*2 - 1
}

// CantorPair computes the Cantor pairing of (a, b): a stable identifier for
// an ordered pair of (possibly negative) integers. Distinct pairs always
// produce distinct ids.
func CantorPair(a, b int) int64 {
	za, zb := zigzagEncode(a), zigzagEncode(b)
	s := za + zb
	return s*(s+1)/2 + zb
}

// --- Error-smoothing strategies ---

// SmoothingKind names a moving-average / smoothing strategy applied over a
// chronological buffer of raw error values during training.
type SmoothingKind string

const (
	SmoothSMA         SmoothingKind = "sma"
	SmoothEMA         SmoothingKind = "ema"
	SmoothAdaptiveEMA SmoothingKind = "adaptive-ema"
	SmoothMedian      SmoothingKind = "median"
	SmoothGaussian    SmoothingKind = "gaussian"
	SmoothTrimmed     SmoothingKind = "trimmed"
	SmoothWMA         SmoothingKind = "wma"
)

// Smoother holds the running state a smoothing strategy needs across
// iterations. The EMA family carries state forward between calls to Push;
// the others are pure functions of the current buffer.
type Smoother struct {
	Kind         SmoothingKind
	Window       int
	Alpha        float64 // explicit EMA alpha; 0 means use 2/(window+1)
	TrimmedRatio float64 // tail fraction dropped by "trimmed", clamped to [0, 0.49]

	buf     []float64
	ema     float64
	fastEMA float64
	haveEMA bool
}

// NewSmoother constructs a Smoother for the given strategy/window/alpha.
func NewSmoother(kind SmoothingKind, window int, alpha, trimmedRatio float64) *Smoother {
	if window < 1 {
		window = 1
	}
	return &Smoother{Kind: kind, Window: window, Alpha: alpha, TrimmedRatio: trimmedRatio}
}

// Push appends a new raw error sample and returns the smoothed value.
func (s *Smoother) Push(x float64) float64 {
	s.buf = append(s.buf, x)
	if len(s.buf) > s.Window {
		s.buf = s.buf[len(s.buf)-s.Window:]
	}
	return s.value(x)
}

func (s *Smoother) alphaBase() float64 {
	if s.Alpha > 0 {
		return s.Alpha
	}
	return 2.0 / (float64(s.Window) + 1.0)
}

func (s *Smoother) value(x float64) float64 {
	switch s.Kind {
	case SmoothEMA:
		a := s.alphaBase()
		if !s.haveEMA {
			s.ema = x
			s.haveEMA = true
		} else {
			s.ema += a * (x - s.ema)
		}
		return s.ema
	case SmoothAdaptiveEMA:
		aBase := s.alphaBase()
		if !s.haveEMA {
			s.ema = x
			s.fastEMA = x
			s.haveEMA = true
			return s.ema
		}
		mean := Mean(s.buf)
		variance := 0.0
		if len(s.buf) > 1 {
			sd := Stdev(s.buf)
			variance = sd * sd
		}
		denom := math.Max(mean*mean, 1e-8)
		aFast := math.Min(0.95, aBase*(1+2*variance/denom))
		s.ema += aBase * (x - s.ema)
		s.fastEMA += aFast * (x - s.fastEMA)
		return math.Min(s.fastEMA, s.ema)
	case SmoothSMA:
		return Mean(s.buf)
	case SmoothMedian:
		return Median(s.buf)
	case SmoothGaussian:
		return gaussianSmooth(s.buf, s.Window)
	case SmoothTrimmed:
		return trimmedMean(s.buf, s.TrimmedRatio)
	case SmoothWMA:
		return weightedMovingAverage(s.buf)
	default:
		return Mean(s.buf)
	}
}

// gaussianSmooth weights buffer entries by exp(-1/2 * ((i-(n-1))/sigma)^2)
// with sigma = window/3, favoring the most recent samples.
func gaussianSmooth(buf []float64, window int) float64 {
	n := len(buf)
	if n == 0 {
		return 0.0
	}
	sigma := float64(window) / 3.0
	if sigma <= 0 {
		sigma = 1.0
	}
	var num, den float64
	for i, v := range buf {
		d := (float64(i) - float64(n-1)) / sigma
		w := math.Exp(-0.5 * d * d)
		num += w * v
		den += w
	}
	if den == 0 {
		return Mean(buf)
	}
	return num / den
}

// trimmedMean drops floor(n*r) entries from each tail of the sorted buffer
// and averages what remains; r is clamped to [0, 0.49].
func trimmedMean(buf []float64, ratio float64) float64 {
	n := len(buf)
	if n == 0 {
		return 0.0
	}
	r := clamp(ratio, 0, 0.49)
	sorted := make([]float64, n)
	copy(sorted, buf)
	sort.Float64s(sorted)
	drop := int(math.Floor(float64(n) * r))
	if 2*drop >= n {
		return Mean(sorted)
	}
	return Mean(sorted[drop : n-drop])
}

// weightedMovingAverage applies linear weights 1..n to the chronological
// buffer (most recent sample weighted heaviest).
func weightedMovingAverage(buf []float64) float64 {
	n := len(buf)
	if n == 0 {
		return 0.0
	}
	var num, den float64
	for i, v := range buf {
		w := float64(i + 1)
		num += w * v
		den += w
	}
	return num / den
}
