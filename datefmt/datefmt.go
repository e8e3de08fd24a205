// Package datefmt formats timestamps with date-fns style patterns
// ("d MMM y", "HH:mm") under a small set of locales. Month names come from
// monday.
package datefmt

import (
	"strings"
	"time"

	"github.com/goodsign/monday"
	"golang.org/x/text/language"
)

// Locale pairs a BCP 47 tag with the monday locale that names its months.
type Locale struct {
	Tag    language.Tag
	Monday monday.Locale
}

var (
	PtBR = Locale{Tag: language.BrazilianPortuguese, Monday: monday.LocalePtBR}
	EnUS = Locale{Tag: language.AmericanEnglish, Monday: monday.LocaleEnUS}
)

// The first entry is the fallback when nothing matches.
var (
	locales = []Locale{PtBR, EnUS}
	matcher = language.NewMatcher([]language.Tag{PtBR.Tag, EnUS.Tag})
)

// Lookup returns the supported locale closest to tag. Unparseable or
// unsupported tags resolve to pt-BR.
func Lookup(tag string) Locale {
	t, err := language.Parse(tag)
	if err != nil {
		return PtBR
	}
	_, idx, conf := matcher.Match(t)
	if conf == language.No {
		return PtBR
	}
	return locales[idx]
}

// ShortMonths lists the MMM names, January first.
func (l Locale) ShortMonths() []string { return l.months("Jan") }

// LongMonths lists the MMMM names, January first.
func (l Locale) LongMonths() []string { return l.months("January") }

func (l Locale) months(layout string) []string {
	out := make([]string, 12)
	for m := time.January; m <= time.December; m++ {
		out[m-1] = monday.Format(time.Date(2000, m, 1, 0, 0, 0, 0, time.UTC), layout, l.Monday)
	}
	return out
}

// Format renders t according to pattern. Supported tokens: d dd M MM MMM
// MMMM y yy yyyy H HH m mm. Text between single quotes is copied verbatim
// and a doubled quote yields a literal one. Any other character is copied as is.
func Format(t time.Time, pattern string, loc Locale) string {
	var b strings.Builder
	runes := []rune(pattern)
	for i := 0; i < len(runes); {
		r := runes[i]
		if r == '\'' {
			i = quoted(&b, runes, i)
			continue
		}
		j := i
		for j < len(runes) && runes[j] == r {
			j++
		}
		if layout, ok := goLayout(r, j-i); ok {
			b.WriteString(formatToken(t, r, j-i, layout, loc))
		} else {
			b.WriteString(string(runes[i:j]))
		}
		i = j
	}
	return b.String()
}

// goLayout maps a run of n pattern letters r onto a time.Format layout.
func goLayout(r rune, n int) (string, bool) {
	switch r {
	case 'd':
		if n == 1 {
			return "2", true
		}
		return "02", true
	case 'M':
		switch {
		case n >= 4:
			return "January", true
		case n == 3:
			return "Jan", true
		case n == 2:
			return "01", true
		}
		return "1", true
	case 'y':
		if n == 2 {
			return "06", true
		}
		return "2006", true
	case 'H':
		return "15", true
	case 'm':
		if n == 1 {
			return "4", true
		}
		return "04", true
	}
	return "", false
}

// Each token is formatted on its own so literal text never reaches the
// layout parser.
func formatToken(t time.Time, r rune, n int, layout string, loc Locale) string {
	s := monday.Format(t, layout, loc.Monday)
	if r == 'H' && n == 1 && len(s) == 2 && s[0] == '0' {
		s = s[1:]
	}
	return s
}

// quoted copies the quoted literal that opens at runes[i] and returns the
// index after its closing quote.
func quoted(b *strings.Builder, runes []rune, i int) int {
	if i+1 < len(runes) && runes[i+1] == '\'' {
		b.WriteRune('\'')
		return i + 2
	}
	i++
	for i < len(runes) {
		if runes[i] == '\'' {
			if i+1 < len(runes) && runes[i+1] == '\'' {
				b.WriteRune('\'')
				i += 2
				continue
			}
			return i + 1
		}
		b.WriteRune(runes[i])
		i++
	}
	return i
}
