// Package comment stores public traffic reports submitted from the map.
package comment

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tacnavial/tacnavial/internal/geo"
)

// placeholderBase renders a grey box in place of an uploaded photo.
const placeholderBase = "https://placehold.co/300x200.png?text="

// Comment is a stored traffic report. Comments are never modified or deleted.
type Comment struct {
	ID          string
	Text        string
	ImageURL    string
	SubmittedAt time.Time
	Coordinates *geo.Point
}

// Clone returns a deep copy.
func (c *Comment) Clone() *Comment {
	cpy := *c
	if c.Coordinates != nil {
		p := *c.Coordinates
		cpy.Coordinates = &p
	}
	return &cpy
}

// NewID returns an id of the form comment-<unix millis>-<base36 suffix>.
func NewID(now time.Time) string {
	return fmt.Sprintf("comment-%d-%s", now.UnixMilli(), strconv.FormatUint(uint64(uuid.New().ID()), 36))
}

// PlaceholderImageURL derives the stand-in image URL from the first ten
// characters of the uploaded file name.
func PlaceholderImageURL(fileName string) string {
	r := []rune(fileName)
	if len(r) > 10 {
		r = r[:10]
	}
	return placeholderBase + strings.ReplaceAll(url.QueryEscape(string(r)), "+", "%20")
}
