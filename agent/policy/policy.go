// Package policy holds the pluggable decisions of a chat turn: which domain a
// message belongs to and whether it asks for a booking.
package policy

import (
	"context"
	"strings"
	"unicode"

	contractx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/contract"
)

type Classifier interface {
	Classify(ctx context.Context, message string) (contractx.Domain, error)
}

// ActionDetector picks the catalog item a message asks to book, if any.
type ActionDetector interface {
	Detect(message string, items []contractx.CatalogItem) (contractx.CatalogItem, bool)
}

var (
	flightKeywords = keywordSet(
		"flight", "flights", "fly", "flying", "airline", "airlines", "airport",
		"plane", "depart", "departure", "arrival", "seat", "seats", "ticket",
		"tickets", "cabin", "economy", "business",
	)
	hotelKeywords = keywordSet(
		"hotel", "hotels", "room", "rooms", "stay", "night", "nights", "resort",
		"suite", "accommodation", "lodging", "amenities", "checkin", "checkout",
	)
)

// KeywordClassifier scores flight and hotel vocabulary. Flight wins only on a
// strictly higher score; everything else routes to hotel.
type KeywordClassifier struct{}

var _ Classifier = KeywordClassifier{}

func (KeywordClassifier) Classify(_ context.Context, message string) (contractx.Domain, error) {
	return ClassifyKeywords(message), nil
}

func ClassifyKeywords(message string) contractx.Domain {
	var flight, hotel int
	for _, tok := range Tokenize(message) {
		if flightKeywords[tok] {
			flight++
		}
		if hotelKeywords[tok] {
			hotel++
		}
	}
	if flight > hotel {
		return contractx.DomainFlight
	}
	return contractx.DomainHotel
}

// BookingVerbDetector selects the first listed item when the message contains
// a word starting with "book" or "reserv".
type BookingVerbDetector struct{}

var _ ActionDetector = BookingVerbDetector{}

func (BookingVerbDetector) Detect(message string, items []contractx.CatalogItem) (contractx.CatalogItem, bool) {
	if len(items) == 0 || !HasBookingVerb(message) {
		return contractx.CatalogItem{}, false
	}
	return items[0], true
}

func HasBookingVerb(message string) bool {
	for _, tok := range Tokenize(message) {
		if strings.HasPrefix(tok, "book") || strings.HasPrefix(tok, "reserv") {
			return true
		}
	}
	return false
}

// Tokenize lowercases s and splits it on anything that is not a letter or digit.
// Hyphenated words are joined, so "check-in" becomes "checkin".
func Tokenize(s string) []string {
	s = strings.ReplaceAll(strings.ToLower(s), "-", "")
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func keywordSet(words ...string) map[string]bool {
	out := make(map[string]bool, len(words))
	for _, w := range words {
		out[w] = true
	}
	return out
}
