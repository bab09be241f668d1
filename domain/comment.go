package domain

import "time"

const DeletedCommentContent = "This comment has been deleted."

type Comment struct {
	ID        string    `json:"id"`
	PlaceID   string    `json:"placeId"`
	ParentID  *string   `json:"parentId"`
	Nickname  string    `json:"nickname"`
	Password  string    `json:"-"`
	Content   string    `json:"content"`
	IsDeleted bool      `json:"isDeleted"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c Comment) IsRoot() bool {
	return c.ParentID == nil
}

// DisplayContent hides the body of soft deleted comments.
func (c Comment) DisplayContent() string {
	if c.IsDeleted {
		return DeletedCommentContent
	}
	return c.Content
}
