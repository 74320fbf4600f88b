// Package silver rebuilds the silver layer from bronze: typing, cleaning,
// department and date filtering, derived columns, and parquet partitioning.
package silver

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CleanString normalizes a raw field value to a trimmed string. Numeric
// commune and department codes come back from JSON as numbers, sometimes
// with a float tail ("75056.0"); both forms normalize to "75056". Missing
// values normalize to the empty string.
func CleanString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return stripFloatTail(strings.TrimSpace(t))
	case json.Number:
		return stripFloatTail(t.String())
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return stripFloatTail(strings.TrimSpace(fmt.Sprintf("%v", t)))
	}
}

func stripFloatTail(s string) string {
	if !strings.HasSuffix(s, ".0") {
		return s
	}
	head := strings.TrimSuffix(s, ".0")
	if head == "" {
		return s
	}
	for _, r := range head {
		if r < '0' || r > '9' {
			return s
		}
	}
	return head
}

// ParseDecimal parses a French decimal string where the comma is the
// decimal separator ("1234,56").
func ParseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, fmt.Errorf("empty decimal value")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	return v, nil
}

// Quarter formats the calendar quarter of a date, e.g. "2020Q1".
func Quarter(t time.Time) string {
	return fmt.Sprintf("%dQ%d", t.Year(), (int(t.Month())-1)/3+1)
}
