package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Num es la única frontera de parseo numérico. Acepta números, strings numéricos
// y json.Number; nil, bool, vacío, texto no numérico, NaN e ±Inf se convierten en 0.
// A partir de aquí todo el cálculo trabaja con float64.
func Num(v any) float64 {
	switch t := v.(type) {
	case bool:
		return 0
	case string:
		v = strings.TrimSpace(t)
	case json.Number:
		v = t.String()
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Timestamp convierte un timestamp de la API a time.Time (UTC).
// Acepta unix en segundos o milisegundos (número o string) y strings RFC3339.
// Devuelve el zero time si no se puede interpretar.
func Timestamp(v any) time.Time {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return time.Time{}
		}
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			for _, layout := range []string{
				time.RFC3339Nano, time.RFC3339,
				"2006-01-02T15:04:05.000Z", "2006-01-02T15:04:05Z",
				"2006-01-02",
			} {
				if t, err := time.Parse(layout, s); err == nil {
					return t.UTC()
				}
			}
			return time.Time{}
		}
	}

	f := Num(v)
	if f <= 0 {
		return time.Time{}
	}
	if f > 1e12 {
		ms := int64(f)
		return time.UnixMilli(ms).UTC()
	}
	sec := int64(f)
	nsec := int64((f - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC()
}

func upper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
