package datetime

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// patternToken is either a literal run of text or a field such as "yyyy".
type patternToken struct {
	literal string
	field   string
}

// knownFields lists every field accepted in a format pattern.
var knownFields = map[string]bool{
	"y": true, "yy": true, "yyyy": true,
	"M": true, "MM": true, "MMM": true, "MMMM": true,
	"d": true, "dd": true,
	"EEE": true, "EEEE": true,
	"H": true, "HH": true,
	"h": true, "hh": true,
	"m": true, "mm": true,
	"s": true, "ss": true,
	"SSS": true,
	"a": true,
}

// Format renders t using a symbolic pattern such as "yyyy", "MMM d" or
// "HH:mm". Text in single quotes is copied verbatim. Instants in year 0 or
// earlier render as "<N> BCE" whatever the pattern.
func Format(t time.Time, pattern string) (string, error) {
	tokens, err := compilePattern(pattern)
	if err != nil {
		return "", err
	}

	t = t.UTC()
	if year := t.Year(); year <= 0 {
		return FormatBCE(year), nil
	}

	var b strings.Builder
	for _, tok := range tokens {
		if tok.field == "" {
			b.WriteString(tok.literal)
			continue
		}
		b.WriteString(formatField(t, tok.field))
	}
	return b.String(), nil
}

// FormatBCE renders an astronomical year at or before year 0 as "<N> BCE".
func FormatBCE(year int) string {
	return fmt.Sprintf("%d BCE", 1-year)
}

// ValidatePattern reports whether every token in pattern is recognized.
func ValidatePattern(pattern string) error {
	_, err := compilePattern(pattern)
	return err
}

func compilePattern(pattern string) ([]patternToken, error) {
	var tokens []patternToken
	runes := []rune(pattern)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case r == '\'':
			end := i + 1
			for end < len(runes) && runes[end] != '\'' {
				end++
			}
			tokens = append(tokens, patternToken{literal: string(runes[i+1 : end])})
			i = end + 1
		case isPatternLetter(r):
			end := i + 1
			for end < len(runes) && runes[end] == r {
				end++
			}
			field := string(runes[i:end])
			if !knownFields[field] {
				return nil, &FormatError{Pattern: pattern, Token: field}
			}
			tokens = append(tokens, patternToken{field: field})
			i = end
		default:
			end := i + 1
			for end < len(runes) && !isPatternLetter(runes[end]) && runes[end] != '\'' {
				end++
			}
			tokens = append(tokens, patternToken{literal: string(runes[i:end])})
			i = end
		}
	}
	return tokens, nil
}

func isPatternLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func formatField(t time.Time, field string) string {
	switch field {
	case "yyyy":
		return fmt.Sprintf("%04d", t.Year())
	case "yy":
		return fmt.Sprintf("%02d", t.Year()%100)
	case "y":
		return strconv.Itoa(t.Year())
	case "MMMM":
		return t.Month().String()
	case "MMM":
		return t.Month().String()[:3]
	case "MM":
		return fmt.Sprintf("%02d", int(t.Month()))
	case "M":
		return strconv.Itoa(int(t.Month()))
	case "dd":
		return fmt.Sprintf("%02d", t.Day())
	case "d":
		return strconv.Itoa(t.Day())
	case "EEEE":
		return t.Weekday().String()
	case "EEE":
		return t.Weekday().String()[:3]
	case "HH":
		return fmt.Sprintf("%02d", t.Hour())
	case "H":
		return strconv.Itoa(t.Hour())
	case "hh":
		return fmt.Sprintf("%02d", hour12(t.Hour()))
	case "h":
		return strconv.Itoa(hour12(t.Hour()))
	case "mm":
		return fmt.Sprintf("%02d", t.Minute())
	case "m":
		return strconv.Itoa(t.Minute())
	case "ss":
		return fmt.Sprintf("%02d", t.Second())
	case "s":
		return strconv.Itoa(t.Second())
	case "SSS":
		return fmt.Sprintf("%03d", t.Nanosecond()/int(time.Millisecond))
	case "a":
		if t.Hour() < 12 {
			return "AM"
		}
		return "PM"
	}
	return ""
}

func hour12(h int) int {
	if h%12 == 0 {
		return 12
	}
	return h % 12
}
