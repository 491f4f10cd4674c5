package chart

import (
	"log"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/visualizing-jp/prj-jcie-sub000/internal/config"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/data"
)

// Point is one (x, y) value of a series. Key is the raw x string; the
// diff-based update joins on it.
type Point struct {
	X   float64
	Y   float64
	Key string
}

// Series is a named, x-sorted value list derived from the raw rows.
// Recomputed on every render; never shared between renders.
type Series struct {
	Name   string
	Values []Point
}

// FilterRows applies the step's filter spec before series transformation.
// Unknown filter kinds log a warning and pass everything through.
func FilterRows(rows []data.Row, spec config.ChartSpec) []data.Row {
	f := spec.Filter
	if f == nil {
		return rows
	}

	keep := func(data.Row) bool { return true }
	switch f.Kind {
	case "range":
		field := f.Field
		if field == "" {
			field = spec.XField
		}
		keep = func(r data.Row) bool {
			v, err := strconv.ParseFloat(r[field], 64)
			if err != nil {
				return false
			}
			return v >= f.Min && v <= f.Max
		}
	case "values":
		set := toSet(f.Values)
		keep = func(r data.Row) bool { return set[r[f.Field]] }
	case "exclude":
		set := toSet(f.Values)
		keep = func(r data.Row) bool { return !set[r[f.Field]] }
	case "series":
		set := toSet(f.Series)
		keep = func(r data.Row) bool { return set[r[spec.SeriesField]] }
	default:
		log.Printf("[!] chart: unknown filter kind %q, ignoring", f.Kind)
		return rows
	}

	out := rows[:0:0]
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func toSet(vals []string) map[string]bool {
	set := make(map[string]bool, len(vals))
	for _, v := range vals {
		set[v] = true
	}
	return set
}

// BuildSeries groups filtered rows into named series. With multi_series
// disabled every row collapses into one series named by series_name.
func BuildSeries(rows []data.Row, spec config.ChartSpec) []Series {
	grouped := make(map[string][]Point)
	var order []string

	multi := spec.MultiSeries == nil || *spec.MultiSeries
	for _, r := range rows {
		name := spec.SeriesName
		if multi {
			if s := r[spec.SeriesField]; s != "" {
				name = s
			}
		}

		x, ok := parseX(r[spec.XField])
		if !ok {
			continue
		}
		y, err := strconv.ParseFloat(r[spec.YField], 64)
		if err != nil {
			continue
		}

		if _, seen := grouped[name]; !seen {
			order = append(order, name)
		}
		grouped[name] = append(grouped[name], Point{X: x, Y: y, Key: r[spec.XField]})
	}

	out := make([]Series, 0, len(order))
	for _, name := range order {
		vals := grouped[name]
		sort.Slice(vals, func(i, j int) bool { return vals[i].X < vals[j].X })
		out = append(out, Series{Name: name, Values: vals})
	}
	return out
}

// parseX coerces an x-field value: numeric strings pass through, otherwise
// a date is attempted and converted to a fractional year.
func parseX(raw string) (float64, bool) {
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return v, true
	}
	for _, layout := range []string{"2006-01-02", "2006-01", "Jan 2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return float64(t.Year()) + float64(t.YearDay()-1)/365.0, true
		}
	}
	return 0, false
}

// Scale maps a data domain onto a pixel range linearly.
type Scale struct {
	DomainMin, DomainMax float64
	RangeMin, RangeMax   float64
}

// Map converts a domain value to pixels.
func (s Scale) Map(v float64) float64 {
	span := s.DomainMax - s.DomainMin
	if span == 0 {
		return (s.RangeMin + s.RangeMax) / 2
	}
	t := (v - s.DomainMin) / span
	return s.RangeMin + t*(s.RangeMax-s.RangeMin)
}

// plausibleYear reports whether every x value looks like a calendar year.
// Mirrors the original renderer's heuristic for switching between a year
// axis and a date axis.
func plausibleYear(series []Series) bool {
	any := false
	for _, s := range series {
		for _, p := range s.Values {
			any = true
			if p.X <= 1900 || p.X >= 2100 {
				return false
			}
		}
	}
	return any
}

// XScale derives the X scale: explicit year_range wins, otherwise the data
// extent.
func XScale(series []Series, spec config.ChartSpec, rangeMin, rangeMax float64) Scale {
	sc := Scale{RangeMin: rangeMin, RangeMax: rangeMax}
	if len(spec.YearRange) == 2 {
		sc.DomainMin, sc.DomainMax = spec.YearRange[0], spec.YearRange[1]
		return sc
	}
	sc.DomainMin, sc.DomainMax = extent(series, func(p Point) float64 { return p.X })
	return sc
}

// YScale derives the Y scale: explicit y_range wins, otherwise the data
// extent rounded outward to nice values.
func YScale(series []Series, spec config.ChartSpec, rangeMin, rangeMax float64) Scale {
	sc := Scale{RangeMin: rangeMin, RangeMax: rangeMax}
	if len(spec.YRange) == 2 {
		sc.DomainMin, sc.DomainMax = spec.YRange[0], spec.YRange[1]
		return sc
	}
	lo, hi := extent(series, func(p Point) float64 { return p.Y })
	sc.DomainMin, sc.DomainMax = nice(lo, hi)
	return sc
}

func extent(series []Series, get func(Point) float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, p := range s.Values {
			v := get(p)
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 1
	}
	if lo == hi {
		return lo, lo + 1
	}
	return lo, hi
}

// nice expands a domain outward to round step multiples, matching the
// behavior of d3's scale.nice().
func nice(lo, hi float64) (float64, float64) {
	span := hi - lo
	if span <= 0 {
		return lo, hi
	}
	step := math.Pow(10, math.Floor(math.Log10(span/10)))
	for span/step > 50 {
		step *= 10
	}
	return math.Floor(lo/step) * step, math.Ceil(hi/step) * step
}

// Ticks returns about n round tick values across the scale's domain.
func (s Scale) Ticks(n int) []float64 {
	if n <= 0 {
		return nil
	}
	span := s.DomainMax - s.DomainMin
	if span <= 0 {
		return []float64{s.DomainMin}
	}
	raw := span / float64(n)
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	step := mag
	switch {
	case raw/mag >= 5:
		step = 5 * mag
	case raw/mag >= 2:
		step = 2 * mag
	}

	var ticks []float64
	for v := math.Ceil(s.DomainMin/step) * step; v <= s.DomainMax+step/1e6; v += step {
		ticks = append(ticks, v)
	}
	return ticks
}
