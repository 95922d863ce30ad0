package prompt

import (
	_ "embed"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/contract"
)

var (
	//go:embed template/flight.txt
	flightRaw string

	//go:embed template/hotel.txt
	hotelRaw string

	//go:embed template/classifier.txt
	classifierRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Flight     string
	Hotel      string
	Classifier string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Flight:     strings.TrimSpace(flightRaw),
		Hotel:      strings.TrimSpace(hotelRaw),
		Classifier: strings.TrimSpace(classifierRaw),
	}
}

// ForDomain returns the system prompt of a domain agent.
func (p PromptSet) ForDomain(domain contractx.Domain) (string, error) {
	var out string
	switch domain {
	case contractx.DomainFlight:
		out = p.Flight
	case contractx.DomainHotel:
		out = p.Hotel
	default:
		return "", fmt.Errorf("%w: unknown domain %q", contractx.ErrPromptMissing, domain)
	}
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("%w: %s system prompt", contractx.ErrPromptMissing, domain)
	}
	return out, nil
}
