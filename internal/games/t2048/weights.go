package t2048

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/vovakirdan/stage2048/internal/coerce"
)

// TileWeight is one candidate spawn value and its relative weight.
type TileWeight struct {
	Value  int
	Weight float64
}

// Weights is an ordered spawn table. Draws walk it in slice order.
//
// On the wire it is a JSON object keyed by tile value, e.g. {"1":0.9,"2":0.1},
// always written in ascending value order.
type Weights []TileWeight

// DefaultWeights returns {1: 0.9, 2: 0.1}.
func DefaultWeights() Weights {
	return Weights{{Value: 1, Weight: 0.9}, {Value: 2, Weight: 0.1}}
}

// Clone returns a copy.
func (w Weights) Clone() Weights {
	return slices.Clone(w)
}

// Normalize drops entries with a non-positive value or a non-positive or
// non-finite weight, keeps the last entry for duplicate values and sorts
// by ascending value.
func (w Weights) Normalize() Weights {
	byValue := make(map[int]float64, len(w))
	for _, tw := range w {
		if tw.Value <= 0 || tw.Weight <= 0 || math.IsNaN(tw.Weight) || math.IsInf(tw.Weight, 0) {
			continue
		}
		byValue[tw.Value] = tw.Weight
	}
	out := make(Weights, 0, len(byValue))
	for v, wt := range byValue {
		out = append(out, TileWeight{Value: v, Weight: wt})
	}
	slices.SortFunc(out, func(a, b TileWeight) int { return a.Value - b.Value })
	return out
}

// OrDefault returns the normalized table, or DefaultWeights when nothing
// usable remains.
func (w Weights) OrDefault() Weights {
	n := w.Normalize()
	if len(n) == 0 {
		return DefaultWeights()
	}
	return n
}

// Total returns the sum of all weights.
func (w Weights) Total() float64 {
	sum := 0.0
	for _, tw := range w {
		sum += tw.Weight
	}
	return sum
}

// Pick selects a value for the uniform draw r in [0, 1). The running
// remainder r*total has each weight subtracted in order and the first entry
// that brings it to <= 0 wins. The first entry is the fallback when float
// error keeps the remainder positive.
func (w Weights) Pick(r float64) int {
	if len(w) == 0 {
		return 0
	}
	rnd := r * w.Total()
	for _, tw := range w {
		rnd -= tw.Weight
		if rnd <= 0 {
			return tw.Value
		}
	}
	return w[0].Value
}

// Map returns the table as value -> weight.
func (w Weights) Map() map[int]float64 {
	m := make(map[int]float64, len(w))
	for _, tw := range w {
		m[tw.Value] = tw.Weight
	}
	return m
}

// WeightsFromMap builds a normalized table from value -> weight.
func WeightsFromMap(m map[int]float64) Weights {
	w := make(Weights, 0, len(m))
	for v, wt := range m {
		w = append(w, TileWeight{Value: v, Weight: wt})
	}
	return w.Normalize()
}

// WeightsFromAny parses a loosely typed JSON object such as
// {"1": 0.9, "2": "0.1"}. Keys or values that are not numbers are skipped,
// as are non-integer keys. The result keeps every finite entry, so callers
// that spawn tiles should still call OrDefault.
func WeightsFromAny(v any) Weights {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	w := make(Weights, 0, len(obj))
	for k, raw := range obj {
		key, err := strconv.ParseFloat(k, 64)
		if err != nil || key != math.Trunc(key) || math.Abs(key) > math.MaxInt32 {
			continue
		}
		wt, ok := coerce.Number(raw)
		if !ok {
			continue
		}
		w = append(w, TileWeight{Value: int(key), Weight: wt})
	}
	slices.SortFunc(w, func(a, b TileWeight) int { return a.Value - b.Value })
	return w
}

// MarshalJSON writes the table as an object in ascending value order.
func (w Weights) MarshalJSON() ([]byte, error) {
	sorted := slices.Clone(w)
	slices.SortStableFunc(sorted, func(a, b TileWeight) int { return a.Value - b.Value })

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, tw := range sorted {
		if i > 0 {
			buf.WriteByte(',')
		}
		wt, err := json.Marshal(tw.Weight)
		if err != nil {
			return nil, fmt.Errorf("t2048: cannot encode weight for %d: %w", tw.Value, err)
		}
		fmt.Fprintf(&buf, "%q:%s", strconv.Itoa(tw.Value), wt)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts an object ({"1":0.9}), a list of pairs ([[1,0.9]])
// or a list of {"value":1,"weight":0.9} records. Unusable entries are
// dropped rather than rejected.
func (w *Weights) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("t2048: cannot decode weights: %w", err)
	}

	switch x := raw.(type) {
	case nil:
		*w = nil
	case map[string]any:
		*w = WeightsFromAny(x)
	case []any:
		out := make(Weights, 0, len(x))
		for _, e := range x {
			var val, wt any
			switch item := e.(type) {
			case []any:
				if len(item) != 2 {
					continue
				}
				val, wt = item[0], item[1]
			case map[string]any:
				val = item["value"]
				wt = item["weight"]
				if wt == nil {
					wt = item["probability"]
				}
			default:
				continue
			}
			v, ok1 := coerce.Int(val)
			f, ok2 := coerce.Number(wt)
			if ok1 && ok2 {
				out = append(out, TileWeight{Value: v, Weight: f})
			}
		}
		*w = out
	default:
		return fmt.Errorf("t2048: weights must be an object or a list, got %T", raw)
	}
	return nil
}
