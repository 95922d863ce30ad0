package catalog

import (
	"fmt"
	"time"

	contractx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/contract"
	"github.com/uptrace/bun"
)

const (
	FlightStatusScheduled = "scheduled"
	FlightStatusDelayed   = "delayed"
	FlightStatusCancelled = "cancelled"
)

// Flight rows live in the flights table / collection. The same struct is used
// by the SQL and Mongo backends.
type Flight struct {
	bun.BaseModel `bun:"table:flights,alias:f" bson:"-" json:"-"`

	ID               string    `bun:"id,pk" bson:"_id,omitempty" json:"id"`
	FlightNumber     string    `bun:"flight_number,notnull" bson:"flight_number" json:"flight_number"`
	Airline          string    `bun:"airline,notnull" bson:"airline" json:"airline"`
	DepartureAirport string    `bun:"departure_airport,notnull" bson:"departure_airport" json:"departure_airport"`
	ArrivalAirport   string    `bun:"arrival_airport,notnull" bson:"arrival_airport" json:"arrival_airport"`
	DepartureTime    time.Time `bun:"departure_time,notnull" bson:"departure_time" json:"departure_time"`
	ArrivalTime      time.Time `bun:"arrival_time,notnull" bson:"arrival_time" json:"arrival_time"`
	Price            float64   `bun:"price,notnull" bson:"price" json:"price"`
	SeatsAvailable   int       `bun:"seats_available,notnull" bson:"seats_available" json:"seats_available"`
	CabinClass       string    `bun:"cabin_class" bson:"cabin_class" json:"cabin_class"`
	Status           string    `bun:"status,notnull" bson:"status" json:"status"`
}

type Address struct {
	Street     string `bson:"street" json:"street"`
	City       string `bson:"city" json:"city"`
	Country    string `bson:"country" json:"country"`
	PostalCode string `bson:"postal_code" json:"postal_code"`
}

type Hotel struct {
	bun.BaseModel `bun:"table:hotels,alias:h" bson:"-" json:"-"`

	ID             string    `bun:"id,pk" bson:"_id,omitempty" json:"id"`
	Name           string    `bun:"name,notnull" bson:"name" json:"name"`
	Address        Address   `bun:"address" bson:"address" json:"address"`
	StarRating     int       `bun:"star_rating" bson:"star_rating" json:"star_rating"`
	RoomType       string    `bun:"room_type" bson:"room_type" json:"room_type"`
	PricePerNight  float64   `bun:"price_per_night,notnull" bson:"price_per_night" json:"price_per_night"`
	AvailableRooms int       `bun:"available_rooms,notnull" bson:"available_rooms" json:"available_rooms"`
	CheckInDate    time.Time `bun:"check_in_date,nullzero" bson:"check_in_date,omitempty" json:"check_in_date,omitempty"`
	CheckOutDate   time.Time `bun:"check_out_date,nullzero" bson:"check_out_date,omitempty" json:"check_out_date,omitempty"`
	Amenities      []string  `bun:"amenities" bson:"amenities" json:"amenities"`
}

// Booking is the persisted form of contractx.BookingRecord.
type Booking struct {
	bun.BaseModel `bun:"table:bookings,alias:b" bson:"-" json:"-"`

	ID         string                  `bun:"id,pk" bson:"_id" json:"id"`
	ActionID   string                  `bun:"action_id,notnull,unique" bson:"action_id" json:"action_id"`
	UserID     string                  `bun:"user_id,notnull" bson:"user_id" json:"user_id"`
	ItemID     string                  `bun:"item_id,notnull" bson:"item_id" json:"item_id"`
	Domain     contractx.Domain        `bun:"domain,notnull" bson:"domain" json:"domain"`
	TotalPrice float64                 `bun:"total_price,notnull" bson:"total_price" json:"total_price"`
	Status     contractx.BookingStatus `bun:"status,notnull" bson:"status" json:"status"`
	CreatedAt  time.Time               `bun:"created_at,notnull" bson:"created_at" json:"created_at"`
}

func (f Flight) Item() contractx.CatalogItem {
	return contractx.CatalogItem{
		ID:             f.ID,
		Domain:         contractx.DomainFlight,
		Title:          fmt.Sprintf("%s %s %s->%s", f.FlightNumber, f.Airline, f.DepartureAirport, f.ArrivalAirport),
		Price:          f.Price,
		AvailableCount: f.SeatsAvailable,
		Details: map[string]any{
			"id":                f.ID,
			"flight_number":     f.FlightNumber,
			"airline":           f.Airline,
			"departure_airport": f.DepartureAirport,
			"arrival_airport":   f.ArrivalAirport,
			"departure_time":    f.DepartureTime.UTC().Format(time.RFC3339),
			"arrival_time":      f.ArrivalTime.UTC().Format(time.RFC3339),
			"price":             f.Price,
			"seats_available":   f.SeatsAvailable,
			"cabin_class":       f.CabinClass,
			"status":            f.Status,
		},
	}
}

func (h Hotel) Item() contractx.CatalogItem {
	amenities := make([]string, len(h.Amenities))
	copy(amenities, h.Amenities)
	return contractx.CatalogItem{
		ID:             h.ID,
		Domain:         contractx.DomainHotel,
		Title:          fmt.Sprintf("%s (%s)", h.Name, h.RoomType),
		Price:          h.PricePerNight,
		AvailableCount: h.AvailableRooms,
		Details: map[string]any{
			"id":   h.ID,
			"name": h.Name,
			"address": map[string]any{
				"street":      h.Address.Street,
				"city":        h.Address.City,
				"country":     h.Address.Country,
				"postal_code": h.Address.PostalCode,
			},
			"star_rating":     h.StarRating,
			"room_type":       h.RoomType,
			"price_per_night": h.PricePerNight,
			"available_rooms": h.AvailableRooms,
			"amenities":       amenities,
		},
	}
}

func bookingFromRecord(rec contractx.BookingRecord) Booking {
	return Booking{
		ID:         rec.ID,
		ActionID:   rec.ActionID,
		UserID:     rec.UserID,
		ItemID:     rec.ItemID,
		Domain:     rec.Domain,
		TotalPrice: rec.TotalPrice,
		Status:     rec.Status,
		CreatedAt:  rec.CreatedAt.UTC(),
	}
}

func (b Booking) Record() contractx.BookingRecord {
	return contractx.BookingRecord{
		ID:         b.ID,
		ActionID:   b.ActionID,
		UserID:     b.UserID,
		ItemID:     b.ItemID,
		Domain:     b.Domain,
		TotalPrice: b.TotalPrice,
		Status:     b.Status,
		CreatedAt:  b.CreatedAt,
	}
}

// inventoryColumn names the availability counter of a domain's table.
func inventoryColumn(domain contractx.Domain) (string, error) {
	switch domain {
	case contractx.DomainFlight:
		return "seats_available", nil
	case contractx.DomainHotel:
		return "available_rooms", nil
	default:
		return "", fmt.Errorf("%w: unknown domain %q", contractx.ErrValidation, domain)
	}
}
