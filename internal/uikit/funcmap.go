// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package uikit provides template helpers, pagination logic and small view
// model types shared by the public site and the admin panel.
package uikit

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"html/template"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// MonthsID contains Indonesian month names.
var MonthsID = []string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// DefaultTruncateLength is the length used for card excerpts.
const DefaultTruncateLength = 100

var idPrinter = message.NewPrinter(language.Indonesian)

// FormatPrice formats whole rupiah the Indonesian way, without fraction
// digits: 1500000 becomes "Rp 1.500.000".
func FormatPrice(amount int64) string {
	return "Rp " + idPrinter.Sprintf("%d", amount)
}

// FormatNumber groups digits with the Indonesian thousands separator.
func FormatNumber(n int64) string {
	return idPrinter.Sprintf("%d", n)
}

// FormatPercent formats a growth or conversion figure with one decimal.
func FormatPercent(v float64) string {
	return strings.Replace(strconv.FormatFloat(v, 'f', 1, 64), ".", ",", 1) + "%"
}

// FormatDate formats a date as "05 Januari 2026".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%02d %s %d", t.Day(), MonthsID[t.Month()-1], t.Year())
}

// FormatDateTime formats a timestamp as "05 Januari 2026, 14:30".
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s, %02d:%02d", FormatDate(t), t.Hour(), t.Minute())
}

// Truncate shortens s to at most length runes and appends "..." when it
// cut anything.
func Truncate(s string, length int) string {
	if length <= 0 {
		length = DefaultTruncateLength
	}
	if utf8.RuneCountInString(s) <= length {
		return s
	}
	runes := []rune(s)
	return string(runes[:length]) + "..."
}

// WhatsAppURL builds a wa.me link for an Indonesian phone number, turning a
// leading 0 into the 62 country code.
func WhatsAppURL(phone, text string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	number := digits.String()
	if number == "" {
		return ""
	}
	if strings.HasPrefix(number, "0") {
		number = "62" + number[1:]
	}
	link := "https://wa.me/" + number
	if text != "" {
		link += "?text=" + url.QueryEscape(text)
	}
	return link
}

// ApplyTimeFormatter applies a formatting function to a value that may be
// time.Time, *time.Time or sql.NullTime. Unsupported or null values give "".
func ApplyTimeFormatter(t any, formatter func(time.Time) string) string {
	switch v := t.(type) {
	case time.Time:
		return formatter(v)
	case *time.Time:
		if v == nil {
			return ""
		}
		return formatter(*v)
	case driver.Valuer:
		val, err := v.Value()
		if err != nil {
			return ""
		}
		if tt, ok := val.(time.Time); ok {
			return formatter(tt)
		}
		return ""
	default:
		return ""
	}
}

// Option is a select option.
type Option struct {
	Value string
	Label string
}

// Options builds select options from value/label pairs. A trailing value
// without a label is dropped.
func Options(pairs ...string) []Option {
	out := make([]Option, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, Option{Value: pairs[i], Label: pairs[i+1]})
	}
	return out
}

// TemplateFuncs returns a template.FuncMap with pure helper functions.
//
// Callers can merge project-specific functions on top:
//
//	funcs := uikit.TemplateFuncs()
//	funcs["myFunc"] = myProjectFunc
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		// String functions
		"lower":     strings.ToLower,
		"upper":     strings.ToUpper,
		"title":     titleCase,
		"hasPrefix": strings.HasPrefix,
		"truncate":  Truncate,
		"excerpt": func(s string) string {
			return Truncate(s, DefaultTruncateLength)
		},
		"contains": func(collection, element any) bool {
			if slice, ok := collection.([]string); ok {
				if elem, ok := element.(string); ok {
					for _, s := range slice {
						if s == elem {
							return true
						}
					}
				}
				return false
			}
			if s, ok := collection.(string); ok {
				if substr, ok := element.(string); ok {
					return strings.Contains(s, substr)
				}
			}
			return false
		},

		// URL safety
		"safeURL": func(s string) template.URL {
			return template.URL(s)
		},
		"whatsapp": WhatsAppURL,

		// Math
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"round": func(f float64) int64 {
			return int64(math.Round(f))
		},
		"seq": func(start, end int) []int {
			var result []int
			for i := start; i <= end; i++ {
				result = append(result, i)
			}
			return result
		},

		// Time
		"formatDate": func(t any) string {
			return ApplyTimeFormatter(t, FormatDate)
		},
		"formatDateTime": func(t any) string {
			return ApplyTimeFormatter(t, FormatDateTime)
		},
		"isoDate": func(t any) string {
			return ApplyTimeFormatter(t, func(t time.Time) string { return t.Format("2006-01-02") })
		},

		// Formatting
		"formatPrice":   FormatPrice,
		"formatNumber":  FormatNumber,
		"formatPercent": FormatPercent,

		// JSON
		"toJSON": func(v any) template.JS {
			b, err := json.Marshal(v)
			if err != nil {
				return "null"
			}
			return template.JS(b)
		},

		// Data structures
		"options": Options,
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			dict := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					continue
				}
				dict[key] = values[i+1]
			}
			return dict
		},
	}
}

// titleCase upper-cases the first letter of each underscore or space
// separated word: "payment_settings" becomes "Payment Settings".
func titleCase(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == ' ' })
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = strings.ToUpper(string(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
