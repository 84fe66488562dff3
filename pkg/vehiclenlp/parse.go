// Package vehiclenlp turns free-text car searches such as "2019 vw golf
// diesel manual" into structured search terms.
package vehiclenlp

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Search is what a free-text query asks for. Zero fields were not mentioned.
type Search struct {
	Make         string // canonical make name
	Year         int
	Fuel         string // petrol, diesel, electric or hybrid
	Transmission string // Automatic or Manual
	Terms        string // remaining words, usually the model
}

// makeAliases maps abbreviations and nicknames to canonical make names.
var makeAliases = map[string]string{
	"alfa":        "Alfa Romeo",
	"alfa romeo":  "Alfa Romeo",
	"beemer":      "BMW",
	"benz":        "Mercedes-Benz",
	"bimmer":      "BMW",
	"chevy":       "Chevrolet",
	"land rover":  "Land Rover",
	"landie":      "Land Rover",
	"lambo":       "Lamborghini",
	"merc":        "Mercedes-Benz",
	"mercedes":    "Mercedes-Benz",
	"range rover": "Land Rover",
	"vauxhall":    "Opel",
	"vw":          "Volkswagen",
}

var fuelWords = map[string]string{
	"petrol":   "petrol",
	"gasoline": "petrol",
	"gas":      "petrol",
	"diesel":   "diesel",
	"tdi":      "diesel",
	"electric": "electric",
	"ev":       "electric",
	"bev":      "electric",
	"hybrid":   "hybrid",
	"phev":     "hybrid",
}

var transmissionWords = map[string]string{
	"automatic": "Automatic",
	"auto":      "Automatic",
	"manual":    "Manual",
	"stick":     "Manual",
}

var (
	yearFullRe = regexp.MustCompile(`^((?:18|19|20)\d{2})$`)
	yearAbbrRe = regexp.MustCompile(`^'(\d{2})$`)
)

// Parser recognizes the alias table plus the make names of a catalog.
type Parser struct {
	makes   map[string]string // lowercase name or alias -> canonical
	longest int               // most words in any make key
}

// NewParser creates a Parser that also knows the given catalog make names.
func NewParser(known []string) *Parser {
	p := &Parser{makes: make(map[string]string, len(makeAliases)+len(known))}
	for alias, canonical := range makeAliases {
		p.add(alias, canonical)
	}
	for _, name := range known {
		p.add(strings.ToLower(name), name)
	}
	return p
}

func (p *Parser) add(key, canonical string) {
	p.makes[key] = canonical
	p.longest = max(p.longest, len(strings.Fields(key)))
}

// Parse extracts the first make, year, fuel and transmission mentioned in
// text. Words that match none of them are kept, in order, as Terms.
func (p *Parser) Parse(text string) Search {
	var s Search
	words := tokenize(text)
	var rest []string
	for i := 0; i < len(words); {
		if s.Make == "" {
			if canonical, n := p.matchMake(words[i:]); n > 0 {
				s.Make = canonical
				i += n
				continue
			}
		}
		w := words[i]
		i++
		switch {
		case s.Year == 0 && parseYear(w) > 0:
			s.Year = parseYear(w)
		case s.Fuel == "" && fuelWords[w] != "":
			s.Fuel = fuelWords[w]
		case s.Transmission == "" && transmissionWords[w] != "":
			s.Transmission = transmissionWords[w]
		default:
			rest = append(rest, w)
		}
	}
	s.Terms = strings.Join(rest, " ")
	return s
}

// matchMake finds the longest make key starting at words[0] and returns the
// number of words it spans.
func (p *Parser) matchMake(words []string) (string, int) {
	for n := min(p.longest, len(words)); n > 0; n-- {
		key := strings.Join(words[:n], " ")
		if canonical, ok := p.makes[strings.TrimSuffix(key, "'s")]; ok {
			return canonical, n
		}
	}
	return "", 0
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == ';'
	})
}

// parseYear accepts 1886-2100 and two-digit '19 style years.
func parseYear(w string) int {
	if m := yearFullRe.FindStringSubmatch(w); m != nil {
		y, _ := strconv.Atoi(m[1])
		if y >= 1886 && y <= 2100 {
			return y
		}
		return 0
	}
	if m := yearAbbrRe.FindStringSubmatch(w); m != nil {
		yy, _ := strconv.Atoi(m[1])
		if yy <= 40 {
			return 2000 + yy
		}
		return 1900 + yy
	}
	return 0
}
