package filter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindString
	KindNumber
	KindBool
	KindDateRange
)

// DateRange is an inclusive range of ISO calendar dates (YYYY-MM-DD).
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Value is a normalised filter value. The zero Value is absent.
type Value struct {
	kind Kind
	text string
	num  decimal.Decimal
	flag bool
	rng  DateRange
}

// Absent returns the "no constraint" value.
func Absent() Value { return Value{} }

func StringValue(s string) Value { return Value{kind: KindString, text: s} }

func NumberValue(d decimal.Decimal) Value { return Value{kind: KindNumber, num: d} }

func BoolValue(b bool) Value { return Value{kind: KindBool, flag: b} }

func RangeValue(r DateRange) Value { return Value{kind: KindDateRange, rng: r} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

func (v Value) Text() string { return v.text }

func (v Value) Decimal() decimal.Decimal { return v.num }

func (v Value) Flag() bool { return v.flag }

func (v Value) DateRange() DateRange { return v.rng }

// Equal reports whether two values hold the same variant and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.text == o.text
	case KindNumber:
		return v.num.Equal(o.num)
	case KindBool:
		return v.flag == o.flag
	case KindDateRange:
		return v.rng == o.rng
	}
	return true
}

// String renders the value the way the filter row displays it.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.text
	case KindNumber:
		return v.num.String()
	case KindBool:
		if v.flag {
			return "Yes"
		}
		return "No"
	case KindDateRange:
		return v.rng.Start + ".." + v.rng.End
	}
	return ""
}

// raw unwraps the payload so a Value can be fed back into Normalize.
func (v Value) raw() any {
	switch v.kind {
	case KindString:
		return v.text
	case KindNumber:
		return v.num
	case KindBool:
		return v.flag
	case KindDateRange:
		return v.rng
	}
	return nil
}

// Filter maps fields to non-absent values.
type Filter map[Field]Value

// Get returns the value of f, absent when unset.
func (f Filter) Get(field Field) Value {
	return f[field]
}

// Set stores v under field, removing the entry when v is absent.
func (f Filter) Set(field Field, v Value) {
	if v.IsAbsent() {
		delete(f, field)
		return
	}
	f[field] = v
}

// Clone returns an independent copy; a nil filter clones to an empty one.
func (f Filter) Clone() Filter {
	out := make(Filter, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Normalized re-runs every entry through Normalize, dropping unknown fields
// and values that normalise to absent.
func (f Filter) Normalized() Filter {
	out := make(Filter, len(f))
	for k, v := range f {
		out.Set(k, Normalize(k, v))
	}
	return out
}

// Equal compares two filters entry by entry.
func (f Filter) Equal(o Filter) bool {
	if len(f) != len(o) {
		return false
	}
	for k, v := range f {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// String renders the filter as field=value pairs in column order.
func (f Filter) String() string {
	parts := make([]string, 0, len(f))
	for _, field := range Fields {
		if v, ok := f[field]; ok {
			parts = append(parts, fmt.Sprintf("%s=%s", field, v))
		}
	}
	var unknown []string
	for k, v := range f {
		if !k.Known() {
			unknown = append(unknown, fmt.Sprintf("%s=%s", k, v))
		}
	}
	sort.Strings(unknown)
	return strings.Join(append(parts, unknown...), " ")
}

// Patch is a partial filter supplied by an external source. An absent value
// removes the field's constraint.
type Patch map[Field]Value
