package contract

import (
	"strings"
	"time"
)

// Domain is the booking category a turn is routed to.
type Domain string

const (
	DomainFlight Domain = "flight"
	DomainHotel  Domain = "hotel"
)

func (d Domain) Valid() bool {
	return d == DomainFlight || d == DomainHotel
}

// Title returns the capitalised domain name used in user-facing text.
func (d Domain) Title() string {
	switch d {
	case DomainFlight:
		return "Flight"
	case DomainHotel:
		return "Hotel"
	default:
		return strings.TrimSpace(string(d))
	}
}

func ParseDomain(raw string) (Domain, bool) {
	d := Domain(strings.ToLower(strings.TrimSpace(raw)))
	return d, d.Valid()
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Turn is one entry of a session transcript. Assistant turns carry the user
// message they answer so a chat exchange is recorded as a single entry.
type Turn struct {
	Role        Role      `json:"role"`
	Content     string    `json:"content"`
	UserMessage string    `json:"user_message,omitempty"`
	At          time.Time `json:"at"`
}

// CatalogItem is a denormalized view of a flight or hotel offer.
type CatalogItem struct {
	ID             string         `json:"id"`
	Domain         Domain         `json:"domain"`
	Title          string         `json:"title"`
	Price          float64        `json:"price"`
	AvailableCount int            `json:"available_count"`
	Details        map[string]any `json:"details,omitempty"`
}

// PendingAction is a proposed booking waiting for explicit confirmation.
// It has no inventory effect until accepted.
type PendingAction struct {
	ActionID     string      `json:"action_id"`
	Domain       Domain      `json:"domain"`
	ItemID       string      `json:"item_id"`
	Price        float64     `json:"price"`
	ItemSnapshot CatalogItem `json:"item_snapshot"`
	CreatedAt    time.Time   `json:"created_at"`
}

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

type BookingRecord struct {
	ID         string        `json:"id"`
	ActionID   string        `json:"action_id"`
	UserID     string        `json:"user_id"`
	ItemID     string        `json:"item_id"`
	Domain     Domain        `json:"domain"`
	TotalPrice float64       `json:"total_price"`
	Status     BookingStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
}

type BookingCommand struct {
	ActionID string  `json:"action_id"`
	Domain   Domain  `json:"domain"`
	ItemID   string  `json:"item_id"`
	UserID   string  `json:"user_id"`
	Price    float64 `json:"price"`
}

// Note is a transcript snippet kept for similarity retrieval.
type Note struct {
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	Domain    Domain    `json:"domain"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Prompt is the input of a single completion call.
type Prompt struct {
	System string `json:"system"`
	User   string `json:"user"`
}

type SpecialistRequest struct {
	SessionID   string `json:"session_id"`
	UserID      string `json:"user_id"`
	UserMessage string `json:"user_message"`
	History     []Turn `json:"history,omitempty"`
}

type SpecialistResponse struct {
	Message       string         `json:"message"`
	PendingAction *PendingAction `json:"pending_action,omitempty"`
	Note          *Note          `json:"note,omitempty"`
}

type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

type PendingActionView struct {
	ItemID  string      `json:"item_id"`
	Price   float64     `json:"price"`
	Details CatalogItem `json:"details"`
}

type ChatResponse struct {
	Response             string             `json:"response"`
	SessionID            string             `json:"session_id"`
	RequiresConfirmation bool               `json:"requires_confirmation"`
	PendingAction        *PendingActionView `json:"pending_action,omitempty"`
}

type ConfirmRequest struct {
	SessionID string `json:"session_id"`
	Confirmed bool   `json:"confirmed"`
}

type ConfirmStatus string

const (
	ConfirmStatusConfirmed   ConfirmStatus = "confirmed"
	ConfirmStatusCancelled   ConfirmStatus = "cancelled"
	ConfirmStatusUnavailable ConfirmStatus = "unavailable"
)

type ConfirmResponse struct {
	Response  string        `json:"response"`
	SessionID string        `json:"session_id"`
	Status    ConfirmStatus `json:"status"`
	BookingID string        `json:"booking_id,omitempty"`
}

// ViewOf renders the public projection of a pending action.
func ViewOf(p *PendingAction) *PendingActionView {
	if p == nil {
		return nil
	}
	return &PendingActionView{
		ItemID:  p.ItemID,
		Price:   p.Price,
		Details: p.ItemSnapshot,
	}
}
