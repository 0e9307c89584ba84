package mailimport

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/roteiro-app/travel-planner-api/internal/domain"
)

// Strategy names the extractor that produced a result.
type Strategy string

const (
	StrategyNone   Strategy = "none"
	StrategyJSON   Strategy = "json"
	StrategyPhrase Strategy = "phrase"
)

// Extraction is what could be read from one message body.
// Problems lists recoverable issues (a JSON block that would not decode, for example).
type Extraction struct {
	Flights  []domain.Flight
	Hotels   []domain.Hotel
	Strategy Strategy
	Problems []string
}

func (e Extraction) Empty() bool {
	return len(e.Flights) == 0 && len(e.Hotels) == 0
}

var (
	arrayStart = regexp.MustCompile(`\b(voos|hoteis)\s*=\s*\[`)

	flightPhrase = regexp.MustCompile(`(?i)\bvoo\s+(?:de\s+)?([\p{L}][\p{L}\s.'-]*?)\s+para\s+([\p{L}][\p{L}\s.'-]*?)\s+(?:em|no\s+dia)\s+(\d{1,2}/\d{1,2}/\d{4})(?:\s+(?:às|as)\s+(\d{1,2}:\d{2}))?`)
	hotelPhrase  = regexp.MustCompile(`(?i)\bhotel\s+(.+?)\s+em\s+([\p{L}][\p{L}\s.'-]*?),?\s+(?:com\s+)?check-in\s+(?:em\s+)?(\d{1,2}/\d{1,2}/\d{4})(?:\s+e\s+check-out\s+(?:em\s+)?(\d{1,2}/\d{1,2}/\d{4}))?`)
)

// Extract reads flights and hotels from body. Embedded `voos = [...]` / `hoteis = [...]` arrays
// win; the Portuguese sentence patterns are only tried when neither array decoded.
func Extract(body string) Extraction {
	var ex Extraction

	decoded := false
	for _, loc := range arrayStart.FindAllStringSubmatchIndex(body, -1) {
		name := body[loc[2]:loc[3]]
		open := loc[1] - 1
		raw, ok := balancedArray(body, open)
		if !ok {
			ex.Problems = append(ex.Problems, fmt.Sprintf("%s: unterminated array", name))
			continue
		}
		var err error
		switch name {
		case "voos":
			if ex.Flights != nil {
				continue
			}
			var fs []domain.Flight
			if err = json.Unmarshal([]byte(raw), &fs); err == nil {
				ex.Flights, decoded = fs, true
			}
		case "hoteis":
			if ex.Hotels != nil {
				continue
			}
			var hs []domain.Hotel
			if err = json.Unmarshal([]byte(raw), &hs); err == nil {
				ex.Hotels, decoded = hs, true
			}
		}
		if err != nil {
			ex.Problems = append(ex.Problems, fmt.Sprintf("%s: %v", name, err))
		}
	}
	if decoded {
		ex.Strategy = StrategyJSON
		if ex.Flights == nil {
			ex.Flights = []domain.Flight{}
		}
		if ex.Hotels == nil {
			ex.Hotels = []domain.Hotel{}
		}
		return ex
	}

	ex.Flights, ex.Hotels = nil, nil
	text := strings.Join(strings.Fields(body), " ")
	if m := flightPhrase.FindStringSubmatch(text); m != nil {
		ex.Flights = append(ex.Flights, domain.Flight{
			Origin:        strings.TrimSpace(m[1]),
			Destination:   strings.TrimSpace(m[2]),
			DepartureDate: m[3],
			DepartureTime: m[4],
		})
	}
	if m := hotelPhrase.FindStringSubmatch(text); m != nil {
		ex.Hotels = append(ex.Hotels, domain.Hotel{
			Name:     strings.TrimSpace(m[1]),
			City:     strings.TrimSpace(m[2]),
			CheckIn:  m[3],
			CheckOut: m[4],
		})
	}
	ex.Strategy = StrategyNone
	if !ex.Empty() {
		ex.Strategy = StrategyPhrase
	}
	return ex
}

// balancedArray returns s[open:end] where s[open] is '[' and end is just past the matching ']'.
// Brackets inside JSON strings are ignored.
func balancedArray(s string, open int) (string, bool) {
	depth := 0
	inString, escaped := false, false
	for i := open; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 0 {
				return s[open : i+1], true
			}
		}
	}
	return "", false
}
