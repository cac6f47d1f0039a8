package diaspora

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/glabrego/pona-cli/internal/render"
)

// ID is the canonical identifier of a remote object. Pods send numeric ids for
// most resources and string guids for others; both decode into an ID.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

type Author struct {
	GUID   string `json:"guid"`
	Name   string `json:"name"`
	Handle string `json:"diaspora_id"`
}

// Label is the name shown next to items, falling back to the handle.
func (a Author) Label() string {
	if a.Name != "" {
		return a.Name
	}
	return a.Handle
}

// Notification is one entry of the notification list. Text is plain text
// rendered from the pod's HTML note.
type Notification struct {
	ID         ID
	Kind       string
	TargetType string
	TargetID   ID
	Unread     bool
	CreatedAt  time.Time
	Text       string
}

// RefersToPost reports whether the notification target can be opened as a post.
func (n Notification) RefersToPost() bool {
	return n.TargetType == "Post" && n.TargetID != ""
}

type Comment struct {
	ID        ID        `json:"id"`
	GUID      string    `json:"guid"`
	Author    Author    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	Text      string    `json:"text"`
}

// Post holds a status message and, once loaded, its comments. Comments are
// kept as pointers so every holder of the post sees in-place updates.
type Post struct {
	ID             ID
	GUID           string
	Author         Author
	CreatedAt      time.Time
	Text           string
	CommentsCount  int
	Comments       []*Comment
	CommentsLoaded bool
}

// AddComment appends c to the post's comment list.
func (p *Post) AddComment(c *Comment) {
	p.Comments = append(p.Comments, c)
	p.CommentsCount = len(p.Comments)
}

// RemoveComment removes the first comment with the given id and reports
// whether one was found. The remaining comments keep their order.
func (p *Post) RemoveComment(id ID) bool {
	for i, c := range p.Comments {
		if c.ID != id {
			continue
		}
		copy(p.Comments[i:], p.Comments[i+1:])
		p.Comments[len(p.Comments)-1] = nil
		p.Comments = p.Comments[:len(p.Comments)-1]
		p.CommentsCount = len(p.Comments)
		return true
	}
	return false
}

type postJSON struct {
	ID           ID        `json:"id"`
	GUID         string    `json:"guid"`
	Author       Author    `json:"author"`
	CreatedAt    time.Time `json:"created_at"`
	Text         string    `json:"text"`
	Interactions struct {
		CommentsCount int `json:"comments_count"`
	} `json:"interactions"`
}

func (p postJSON) toPost() *Post {
	return &Post{
		ID:            p.ID,
		GUID:          p.GUID,
		Author:        p.Author,
		CreatedAt:     p.CreatedAt,
		Text:          p.Text,
		CommentsCount: p.Interactions.CommentsCount,
	}
}

type notificationJSON struct {
	ID         ID        `json:"id"`
	TargetType string    `json:"target_type"`
	TargetID   ID        `json:"target_id"`
	Unread     bool      `json:"unread"`
	CreatedAt  time.Time `json:"created_at"`
	NoteHTML   string    `json:"note_html"`
}

// decodeNotifications unwraps the pod's {"<kind>": {...}} envelope.
func decodeNotifications(raw []map[string]json.RawMessage) ([]Notification, error) {
	out := make([]Notification, 0, len(raw))
	for _, envelope := range raw {
		for kind, body := range envelope {
			var n notificationJSON
			if err := json.Unmarshal(body, &n); err != nil {
				return nil, fmt.Errorf("decode %s notification: %w", kind, err)
			}
			out = append(out, Notification{
				ID:         n.ID,
				Kind:       kind,
				TargetType: n.TargetType,
				TargetID:   n.TargetID,
				Unread:     n.Unread,
				CreatedAt:  n.CreatedAt,
				Text:       render.PlainText(n.NoteHTML),
			})
		}
	}
	return out, nil
}
