package filter

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"einvoice/pkg/models"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// Param is one backend query parameter.
type Param struct {
	Key   string
	Value string
}

// Normalize turns a raw UI value into a filter Value. Empty, malformed and
// sentinel input ("All", "viewAll") yields Absent, as does any unknown field.
func Normalize(field Field, raw any) Value {
	if v, ok := raw.(Value); ok {
		raw = v.raw()
	}
	if raw == nil {
		return Absent()
	}

	switch field.Category() {
	case CategoryIdentifier:
		return normalizeIdentifier(raw)
	case CategoryText:
		return normalizeText(field, raw)
	case CategoryDateRange:
		return normalizeDateRange(raw)
	case CategoryStatus:
		return normalizeStatus(raw)
	case CategoryBool:
		return normalizeBool(raw)
	case CategoryNumber:
		return normalizeNumber(raw)
	}
	return Absent()
}

// Encode renders the backend query fragment of a field. Values that do not
// normalise for the field produce no parameters.
func Encode(field Field, v Value) []Param {
	v = Normalize(field, v)
	if v.IsAbsent() {
		return nil
	}

	keys := field.Keys()
	switch v.Kind() {
	case KindDateRange:
		r := v.DateRange()
		return []Param{{keys[0], r.Start}, {keys[1], r.End}}
	case KindBool:
		return []Param{{keys[0], strconv.FormatBool(v.Flag())}}
	case KindNumber:
		return []Param{{keys[0], v.Decimal().String()}}
	}
	return []Param{{keys[0], v.Text()}}
}

// normalizeIdentifier keeps string ids verbatim (leading zeros included) and
// formats numeric ids without exponent or trailing zeros.
func normalizeIdentifier(raw any) Value {
	if s, ok := raw.(string); ok {
		if s = strings.TrimSpace(s); s == "" {
			return Absent()
		}
		return StringValue(s)
	}
	if d, ok := numberOf(raw); ok {
		return StringValue(d.String())
	}
	return Absent()
}

func normalizeText(field Field, raw any) Value {
	var s string
	switch t := raw.(type) {
	case string:
		s = t
	case fmt.Stringer:
		s = t.String()
	default:
		return Absent()
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return Absent()
	}
	if field == FieldType && strings.EqualFold(s, "All") {
		return Absent()
	}
	return StringValue(s)
}

func normalizeStatus(raw any) Value {
	var s string
	switch t := raw.(type) {
	case string:
		s = t
	case models.Status:
		s = string(t)
	default:
		return Absent()
	}
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "All") || strings.EqualFold(s, "viewAll") {
		return Absent()
	}
	status, ok := models.ParseStatus(s)
	if !ok {
		return Absent()
	}
	return StringValue(string(status))
}

func normalizeBool(raw any) Value {
	switch t := raw.(type) {
	case bool:
		return BoolValue(t)
	case *bool:
		if t == nil {
			return Absent()
		}
		return BoolValue(*t)
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "y", "1":
			return BoolValue(true)
		case "false", "no", "n", "0":
			return BoolValue(false)
		}
	}
	return Absent()
}

func normalizeNumber(raw any) Value {
	d, ok := numberOf(raw)
	if !ok {
		return Absent()
	}
	return NumberValue(d)
}

// numberOf accepts Go numerics, decimals, json.Number and numeric strings.
func numberOf(raw any) (decimal.Decimal, bool) {
	switch t := raw.(type) {
	case decimal.Decimal:
		return t, true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int32:
		return decimal.NewFromInt32(t), true
	case int64:
		return decimal.NewFromInt(t), true
	case uint:
		return decimal.NewFromUint64(uint64(t)), true
	case uint64:
		return decimal.NewFromUint64(t), true
	case float32:
		return numberOf(float64(t))
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(t), true
	case json.Number:
		return parseDecimal(t.String())
	case string:
		return parseDecimal(t)
	}
	return decimal.Decimal{}, false
}

func parseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func normalizeDateRange(raw any) Value {
	var start, end string
	switch t := raw.(type) {
	case DateRange:
		start, end = t.Start, t.End
	case *DateRange:
		if t == nil {
			return Absent()
		}
		start, end = t.Start, t.End
	case map[string]string:
		start, end = t["start"], t["end"]
	case map[string]any:
		start, _ = t["start"].(string)
		end, _ = t["end"].(string)
	case [2]string:
		start, end = t[0], t[1]
	case []string:
		if len(t) != 2 {
			return Absent()
		}
		start, end = t[0], t[1]
	case string:
		var ok bool
		if start, end, ok = splitRange(t); !ok {
			return Absent()
		}
	default:
		return Absent()
	}

	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if !isDate(start) || !isDate(end) {
		return Absent()
	}
	return RangeValue(DateRange{Start: start, End: end})
}

// splitRange parses "start..end" or "start,end".
func splitRange(s string) (string, string, bool) {
	for _, sep := range []string{"..", ","} {
		if a, b, ok := strings.Cut(s, sep); ok {
			return a, b, true
		}
	}
	return "", "", false
}

func isDate(s string) bool {
	if len(s) != len(dateLayout) {
		return false
	}
	_, err := time.Parse(dateLayout, s)
	return err == nil
}
