package catalog

import "time"

// SampleFlights and SampleHotels are demo rows loaded by `migrate --seed`.
func SampleFlights() []Flight {
	return []Flight{
		{
			ID:               "fl-bb101",
			FlightNumber:     "BB101",
			Airline:          "Biman Bangladesh Airlines",
			DepartureAirport: "DAC",
			ArrivalAirport:   "CGP",
			DepartureTime:    time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC),
			ArrivalTime:      time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC),
			Price:            6500,
			SeatsAvailable:   100,
			CabinClass:       "Economy",
			Status:           FlightStatusScheduled,
		},
		{
			ID:               "fl-us202",
			FlightNumber:     "US202",
			Airline:          "US-Bangla Airlines",
			DepartureAirport: "DAC",
			ArrivalAirport:   "SPD",
			DepartureTime:    time.Date(2025, 8, 2, 11, 30, 0, 0, time.UTC),
			ArrivalTime:      time.Date(2025, 8, 2, 12, 30, 0, 0, time.UTC),
			Price:            5500,
			SeatsAvailable:   80,
			CabinClass:       "Economy",
			Status:           FlightStatusScheduled,
		},
		{
			ID:               "fl-bb303",
			FlightNumber:     "BB303",
			Airline:          "Biman Bangladesh Airlines",
			DepartureAirport: "CGP",
			ArrivalAirport:   "RJH",
			DepartureTime:    time.Date(2025, 8, 3, 14, 0, 0, 0, time.UTC),
			ArrivalTime:      time.Date(2025, 8, 3, 15, 30, 0, 0, time.UTC),
			Price:            7000,
			SeatsAvailable:   90,
			CabinClass:       "Economy",
			Status:           FlightStatusScheduled,
		},
	}
}

func SampleHotels() []Hotel {
	return []Hotel{
		{
			ID:   "ht-sonargaon",
			Name: "Pan Pacific Sonargaon Dhaka",
			Address: Address{
				Street:     "107 Kazi Nazrul Islam Avenue",
				City:       "Dhaka",
				Country:    "Bangladesh",
				PostalCode: "1215",
			},
			StarRating:     5,
			RoomType:       "Deluxe Room",
			PricePerNight:  15000,
			AvailableRooms: 40,
			CheckInDate:    time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
			CheckOutDate:   time.Date(2025, 8, 5, 0, 0, 0, 0, time.UTC),
			Amenities:      []string{"wifi", "pool", "gym", "restaurant"},
		},
		{
			ID:   "ht-agrabad",
			Name: "Hotel Agrabad Chattogram",
			Address: Address{
				Street:     "1672 Sabder Ali Road, Agrabad C/A",
				City:       "Chattogram",
				Country:    "Bangladesh",
				PostalCode: "4100",
			},
			StarRating:     4,
			RoomType:       "Executive Suite",
			PricePerNight:  12000,
			AvailableRooms: 30,
			CheckInDate:    time.Date(2025, 8, 2, 0, 0, 0, 0, time.UTC),
			CheckOutDate:   time.Date(2025, 8, 6, 0, 0, 0, 0, time.UTC),
			Amenities:      []string{"wifi", "restaurant", "business_center"},
		},
		{
			ID:   "ht-grand-palace",
			Name: "Grand Palace Hotel Saidpur",
			Address: Address{
				Street:     "Airport Road",
				City:       "Saidpur",
				Country:    "Bangladesh",
				PostalCode: "5310",
			},
			StarRating:     3,
			RoomType:       "Standard Room",
			PricePerNight:  8000,
			AvailableRooms: 20,
			Amenities:      []string{"wifi", "parking", "restaurant"},
		},
	}
}
