package events

import "time"

const (
	PlaceExchange = "hayoung.place"
	PartyExchange = "hayoung.party"
)

const (
	PlaceCreatedEvent      = "place.created"
	PlaceUpdatedEvent      = "place.updated"
	PlaceDeletedEvent      = "place.deleted"
	PlaceImageAddedEvent   = "place.image.added"
	CommentCreatedEvent    = "comment.created"
	CommentUpdatedEvent    = "comment.updated"
	CommentDeletedEvent    = "comment.deleted"
	PartyCreatedEvent      = "party.created"
	PartyUpdatedEvent      = "party.updated"
	PartyDeletedEvent      = "party.deleted"
	PartyMemberJoinedEvent = "party.member.joined"
	PartyMemberLeftEvent   = "party.member.left"
)

const (
	EventVersionV1 = "v1"
)

type PlaceCreatedPayload struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Address     string    `json:"address"`
	PlaceURL    string    `json:"placeUrl"`
	Category    string    `json:"category"`
	SubCategory string    `json:"subCategory"`
	Longitude   float64   `json:"longitude"`
	Latitude    float64   `json:"latitude"`
	CreatedAt   time.Time `json:"createdAt"`
}

type PlaceUpdatedPayload struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	SubCategory string    `json:"subCategory"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type PlaceDeletedPayload struct {
	ID        string    `json:"id"`
	DeletedAt time.Time `json:"deletedAt"`
}

type PlaceImageAddedPayload struct {
	ID       string `json:"id"`
	ImageURL string `json:"imageUrl"`
}

type CommentPayload struct {
	ID        string    `json:"id"`
	PlaceID   string    `json:"placeId"`
	ParentID  *string   `json:"parentId,omitempty"`
	Nickname  string    `json:"nickname"`
	Affected  int64     `json:"affected,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type PartyPayload struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
	MemberCount int       `json:"memberCount"`
	Nickname    string    `json:"nickname,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}
