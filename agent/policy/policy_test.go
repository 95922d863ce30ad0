package policy

import (
	"context"
	"testing"

	contractx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/contract"
)

func TestClassifyKeywords(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		msg  string
		want contractx.Domain
	}{
		{name: "flight", msg: "Show me flights from JFK to LAX", want: contractx.DomainFlight},
		{name: "hotel", msg: "I need a hotel room in Paris", want: contractx.DomainHotel},
		{name: "no keywords defaults to hotel", msg: "hello there", want: contractx.DomainHotel},
		{name: "tie goes to hotel", msg: "flight and hotel please", want: contractx.DomainHotel},
		{name: "flight majority", msg: "Book the flight, a window seat near the hotel", want: contractx.DomainFlight},
		{name: "punctuation", msg: "FLIGHTS?!", want: contractx.DomainFlight},
		{name: "hyphenated", msg: "what time is check-in", want: contractx.DomainHotel},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := KeywordClassifier{}.Classify(context.Background(), tc.msg)
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if got != tc.want {
				t.Fatalf("Classify(%q) = %q, want %q", tc.msg, got, tc.want)
			}
		})
	}
}

func TestBookingVerbDetector(t *testing.T) {
	t.Parallel()

	items := []contractx.CatalogItem{
		{ID: "a", Domain: contractx.DomainFlight, Price: 100},
		{ID: "b", Domain: contractx.DomainFlight, Price: 200},
	}

	cases := []struct {
		msg    string
		items  []contractx.CatalogItem
		wantOK bool
	}{
		{msg: "Book the cheapest flight", items: items, wantOK: true},
		{msg: "please reserve it", items: items, wantOK: true},
		{msg: "I'd like a reservation", items: items, wantOK: true},
		{msg: "booking for two", items: items, wantOK: true},
		{msg: "show me flights", items: items, wantOK: false},
		{msg: "facebook flights", items: items, wantOK: false},
		{msg: "book it", items: nil, wantOK: false},
	}

	for _, tc := range cases {
		item, ok := BookingVerbDetector{}.Detect(tc.msg, tc.items)
		if ok != tc.wantOK {
			t.Fatalf("Detect(%q) ok = %t, want %t", tc.msg, ok, tc.wantOK)
		}
		if ok && item.ID != "a" {
			t.Fatalf("Detect(%q) picked %q, want first item", tc.msg, item.ID)
		}
	}
}
