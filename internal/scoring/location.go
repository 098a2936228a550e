package scoring

import "strings"

// usRegions groups state codes into broad regions for the mid-tier
// location match.
var usRegions = map[string]string{
	"CT": "northeast", "ME": "northeast", "MA": "northeast", "NH": "northeast",
	"NJ": "northeast", "NY": "northeast", "PA": "northeast", "RI": "northeast", "VT": "northeast",

	"AL": "southeast", "AR": "southeast", "FL": "southeast", "GA": "southeast",
	"KY": "southeast", "LA": "southeast", "MS": "southeast", "NC": "southeast",
	"SC": "southeast", "TN": "southeast", "VA": "southeast", "WV": "southeast",
	"DE": "southeast", "MD": "southeast", "DC": "southeast",

	"IL": "midwest", "IN": "midwest", "IA": "midwest", "KS": "midwest",
	"MI": "midwest", "MN": "midwest", "MO": "midwest", "NE": "midwest",
	"ND": "midwest", "OH": "midwest", "SD": "midwest", "WI": "midwest",

	"AZ": "southwest", "NM": "southwest", "OK": "southwest", "TX": "southwest",

	"AK": "west", "CA": "west", "CO": "west", "HI": "west", "ID": "west",
	"MT": "west", "NV": "west", "OR": "west", "UT": "west", "WA": "west", "WY": "west",
}

var stateNames = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR",
	"california": "CA", "colorado": "CO", "connecticut": "CT", "delaware": "DE",
	"florida": "FL", "georgia": "GA", "hawaii": "HI", "idaho": "ID",
	"illinois": "IL", "indiana": "IN", "iowa": "IA", "kansas": "KS",
	"kentucky": "KY", "louisiana": "LA", "maine": "ME", "maryland": "MD",
	"massachusetts": "MA", "michigan": "MI", "minnesota": "MN", "mississippi": "MS",
	"missouri": "MO", "montana": "MT", "nebraska": "NE", "nevada": "NV",
	"new hampshire": "NH", "new jersey": "NJ", "new mexico": "NM", "new york": "NY",
	"north carolina": "NC", "north dakota": "ND", "ohio": "OH", "oklahoma": "OK",
	"oregon": "OR", "pennsylvania": "PA", "rhode island": "RI", "south carolina": "SC",
	"south dakota": "SD", "tennessee": "TN", "texas": "TX", "utah": "UT",
	"vermont": "VT", "virginia": "VA", "washington": "WA", "west virginia": "WV",
	"wisconsin": "WI", "wyoming": "WY",
}

// stateCode extracts a US state code from a human-readable location like
// "Austin, TX", "Big Sur, California", or "Texas". Returns "" when no state
// can be recognized.
func stateCode(location string) string {
	loc := strings.TrimSpace(location)
	if loc == "" {
		return ""
	}

	// Prefer the segment after the last comma: "City, ST" or "City, State".
	if i := strings.LastIndex(loc, ","); i >= 0 {
		loc = loc[i+1:]
	}
	loc = strings.TrimSpace(loc)

	upper := strings.ToUpper(loc)
	if len(upper) == 2 {
		if _, ok := usRegions[upper]; ok {
			return upper
		}
	}
	if code, ok := stateNames[strings.ToLower(loc)]; ok {
		return code
	}

	// Fall back to scanning individual tokens for a bare state code.
	for _, tok := range strings.Fields(upper) {
		tok = strings.Trim(tok, ".,()")
		if len(tok) == 2 {
			if _, ok := usRegions[tok]; ok {
				return tok
			}
		}
	}
	return ""
}

func regionOf(state string) string {
	return usRegions[state]
}
