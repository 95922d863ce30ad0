package prompt

import (
	"errors"
	"strings"
	"testing"

	contractx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/contract"
)

func TestLoadPromptSet(t *testing.T) {
	t.Parallel()

	set := LoadPromptSet()
	for name, body := range map[string]string{
		"flight":     set.Flight,
		"hotel":      set.Hotel,
		"classifier": set.Classifier,
	} {
		if body == "" || body != strings.TrimSpace(body) {
			t.Fatalf("%s prompt is empty or untrimmed", name)
		}
	}

	got, err := set.ForDomain(contractx.DomainFlight)
	if err != nil || !strings.Contains(got, "flight booking assistant") {
		t.Fatalf("ForDomain(flight) = %q, %v", got, err)
	}
}

func TestForDomainMissing(t *testing.T) {
	t.Parallel()

	if _, err := (PromptSet{}).ForDomain(contractx.DomainHotel); !errors.Is(err, contractx.ErrPromptMissing) {
		t.Fatalf("ForDomain() error = %v, want ErrPromptMissing", err)
	}
	if _, err := LoadPromptSet().ForDomain("car"); !errors.Is(err, contractx.ErrPromptMissing) {
		t.Fatalf("ForDomain(car) error = %v, want ErrPromptMissing", err)
	}
}
