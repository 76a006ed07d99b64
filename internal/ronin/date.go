package ronin

import (
	"regexp"
	"time"
)

// UnavailableText stands in for the date container's text when it could not be read.
const UnavailableText = "N/A"

const dateLayout = "02 Jan 2006"

// two digits, three letters, four digits, ex. "01 Apr 2023"
var datePattern = regexp.MustCompile(`\d{2} \p{L}{3} \d{4}`)

// ExtractDate returns the first substring of text shaped like "01 Apr 2023".
func ExtractDate(text string) (string, bool) {
	loc := datePattern.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	return text[loc[0]:loc[1]], true
}

// ParseDate parses a date returned by ExtractDate, month abbreviations are english.
func ParseDate(date string) (time.Time, error) {
	return time.Parse(dateLayout, date)
}
