package domain

import "time"

type Property struct {
	ID          string
	Title       string
	Description string
	Price       float64 // USD per month
	Location    string
	Amenities   []string
	Images      []string // ordered; first image is the one we attach
	OwnerID     string
	CreatedAt   time.Time
}

// Reply is what a conversation turn hands back to the transport:
// the message text plus at most one media URL.
type Reply struct {
	Text     string
	MediaURL string
}
