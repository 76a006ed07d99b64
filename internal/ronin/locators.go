package ronin

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// txPathMarker precedes the transaction hash in transaction links.
const txPathMarker = "/tx/"

// Site is where listing and detail pages are found.
type Site struct {
	BaseURL string
	// Contract is the asset contract the identifiers belong to.
	Contract string
	PageSize int
}

func DefaultSite() Site {
	return Site{
		BaseURL:  "https://app.roninchain.com",
		Contract: "0x32950db2a7164ae833121501c797d79e7b79d74c",
		PageSize: 25,
	}
}

func (s Site) base() string {
	return strings.TrimRight(s.BaseURL, "/")
}

// ListingURL is the first page of the identifier's token transfers.
func (s Site) ListingURL(identifier string) string {
	query := url.Values{}
	query.Set("p", "1")
	query.Set("ps", strconv.Itoa(s.PageSize))
	return fmt.Sprintf(
		"%s/token/%s/%s?%s",
		s.base(),
		s.Contract,
		url.PathEscape(identifier),
		query.Encode(),
	)
}

// DetailURL is the page of a single transaction.
func (s Site) DetailURL(txHash string) string {
	return s.base() + txPathMarker + url.PathEscape(txHash)
}

// ListingLocators are the selectors of the token transfer listing page.
type ListingLocators struct {
	TableBody string
	Row       string
	Cell      string
	Link      string
	// ScrollScript forces lazily rendered rows into the page.
	ScrollScript string
}

func DefaultListingLocators() ListingLocators {
	return ListingLocators{
		TableBody:    ".ronin-table-tbody",
		Row:          ".ronin-table-row",
		Cell:         ".ronin-table-cell",
		Link:         "a",
		ScrollScript: "window.scrollTo(0, document.body.scrollHeight);",
	}
}

// DetailLocators are the selectors of the transaction detail page.
type DetailLocators struct {
	DateContainer string
}

func DefaultDetailLocators() DetailLocators {
	return DetailLocators{
		DateContainer: "div.-mb-8",
	}
}

// TxHashFromHref returns what follows the last "/tx/" in a transaction link, or the
// whole trimmed link if it has none.
func TxHashFromHref(href string) string {
	href = strings.TrimSpace(href)
	idx := strings.LastIndex(href, txPathMarker)
	if idx < 0 {
		return href
	}
	return href[idx+len(txPathMarker):]
}
