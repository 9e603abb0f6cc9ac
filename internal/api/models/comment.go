package models

// MaxImageBytes is the largest accepted comment photo.
const MaxImageBytes = 5 * 1024 * 1024

// Comment is a user-submitted traffic report.
type Comment struct {
	ID          string       `json:"id"`
	Text        string       `json:"text"`
	ImageURL    string       `json:"imageUrl,omitempty"`
	SubmittedAt Timestamp    `json:"submittedAt"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// ImageUpload describes an attached photo. Only its metadata travels; the
// content is never stored.
type ImageUpload struct {
	FileName    string `json:"fileName" validate:"required"`
	ContentType string `json:"contentType" validate:"oneof=image/jpeg image/png image/webp"`
	Size        int64  `json:"size" validate:"gte=0,lte=5242880"`
}

// CommentSubmitRequest is the body of POST /v1/comments.
type CommentSubmitRequest struct {
	Text      string       `json:"text" validate:"min=10,max=500"`
	Image     *ImageUpload `json:"image,omitempty"`
	Latitude  *float64     `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64     `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
}

// CommentList is the body of GET /v1/comments, in store order.
type CommentList struct {
	Items []Comment `json:"items"`
}
