package domain

import "time"

type PartyStatus string

const (
	PartyStatusRecruiting PartyStatus = "RECRUITING"
	PartyStatusCompleted  PartyStatus = "COMPLETED"
)

type Party struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Status      PartyStatus `json:"status"`
	Description string      `json:"description"`
	Location    string      `json:"location"`
	Date        time.Time   `json:"date"`
	MaxMembers  *int        `json:"maxMembers"`
	MemberCount int         `json:"currentMembers"`
	Tags        []string    `json:"tags"`
	Nickname    string      `json:"nickname"`
	Password    string      `json:"-"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// IsFull reports whether the party reached its member limit.
func (p Party) IsFull() bool {
	return p.MaxMembers != nil && p.MemberCount >= *p.MaxMembers
}

// DDay is the number of calendar days from now until the party date.
func (p Party) DDay(now time.Time) int64 {
	y1, m1, d1 := now.Date()
	y2, m2, d2 := p.Date.In(now.Location()).Date()
	from := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	to := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return int64(to.Sub(from).Hours() / 24)
}

type PartyMember struct {
	ID        string    `json:"id"`
	PartyID   string    `json:"partyId"`
	Nickname  string    `json:"nickname"`
	Password  string    `json:"-"`
	IsCreator bool      `json:"isCreator"`
	JoinedAt  time.Time `json:"joinedAt"`
}
