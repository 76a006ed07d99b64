package ronin

import "time"

// TransferRecord is one row of an identifier's token transfer listing.
type TransferRecord struct {
	Identifier string
	TxHash     string
}

type DateStatus int

const (
	// DateFound means the date container was read and contained a date.
	DateFound DateStatus = iota
	// DateUnparseable means the date container was read but no date matched.
	DateUnparseable
	// DateUnavailable means the date container never appeared or could not be read.
	DateUnavailable
)

func (s DateStatus) String() string {
	switch s {
	case DateFound:
		return "found"
	case DateUnparseable:
		return "unparseable"
	case DateUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// DatedRecord is a transaction with the date shown on its detail page.
type DatedRecord struct {
	TxHash string
	// Date is the matched date text (ex. "01 Apr 2023"), empty when Status is not DateFound.
	Date   string
	Status DateStatus
	// Text is the trimmed text of the date container, or UnavailableText.
	Text       string
	Identifier string
}

func (r DatedRecord) HasDate() bool {
	return r.Status == DateFound
}

// Time parses Date, it returns false when there is no date or it is not a real calendar day.
func (r DatedRecord) Time() (time.Time, bool) {
	if !r.HasDate() {
		return time.Time{}, false
	}
	t, err := ParseDate(r.Date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
