package oob

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// FormatArgs renders positional arguments the way the portal's reference
// client prints them: elements joined by commas, nested lists flattened,
// null elements empty. Null or missing args as a whole render as "null";
// an empty list renders as "".
func FormatArgs(args []any) string {
	if args == nil {
		return "null"
	}

	return formatValue(args)
}

// FormatValue renders one argument value for display.
func FormatValue(value any) string {
	if value == nil {
		return "null"
	}

	return formatValue(value)
}

func formatValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case bool:
		return strconv.FormatBool(typed)
	case float64:
		return formatNumber(typed)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case json.Number:
		return typed.String()
	case []any:
		parts := make([]string, len(typed))
		for i, item := range typed {
			parts[i] = formatValue(item)
		}
		return strings.Join(parts, ",")
	default:
		return formatJSON(typed)
	}
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}

	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		return trimExponent(strconv.FormatFloat(f, 'e', -1, 64))
	}

	return strconv.FormatFloat(f, 'f', -1, 64)
}

// trimExponent drops the zero padding Go puts on two-digit exponents, so
// 1e-07 reads 1e-7.
func trimExponent(formatted string) string {
	mantissa, exponent, ok := strings.Cut(formatted, "e")
	if !ok {
		return formatted
	}

	sign := exponent[:1]
	digits := strings.TrimLeft(exponent[1:], "0")
	if digits == "" {
		digits = "0"
	}

	return mantissa + "e" + sign + digits
}

func formatJSON(value any) string {
	encoded, err := json.Marshal(value)
	if err != nil {
		return ""
	}

	return string(encoded)
}
