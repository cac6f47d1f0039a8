package shell

import (
	"github.com/glabrego/pona-cli/internal/diaspora"
)

// ListingKind records which list the numbers on screen refer to.
type ListingKind int

const (
	ListingNone ListingKind = iota
	ListingNotifications
	ListingHome
)

func (k ListingKind) String() string {
	switch k {
	case ListingNotifications:
		return "notifications"
	case ListingHome:
		return "home"
	default:
		return "none"
	}
}

// Target is the item a number resolved to: a NotificationTarget or a PostTarget.
type Target interface {
	Index() int
	target()
}

type NotificationTarget struct {
	Position     int
	Notification *diaspora.Notification
}

func (t NotificationTarget) Index() int { return t.Position }
func (NotificationTarget) target()      {}

type PostTarget struct {
	Position int
	Post     *diaspora.Post
}

func (t PostTarget) Index() int { return t.Position }
func (PostTarget) target()      {}

// Resolver maps 1-based numbers to items of the listing shown last. It never
// changes state; callers commit the selection once the item is loaded.
type Resolver struct {
	kind          ListingKind
	notifications []diaspora.Notification
	home          []*diaspora.Post
	notifLoaded   bool
	homeLoaded    bool
	last          int
}

func (r *Resolver) Kind() ListingKind { return r.kind }

// LastIndex returns the last shown index, or 0 when nothing was shown from
// the current listing.
func (r *Resolver) LastIndex() int { return r.last }

// SetNotifications replaces the notification list. The tag is not touched;
// Show records it when the list is displayed.
func (r *Resolver) SetNotifications(list []diaspora.Notification) {
	r.notifications = list
	r.notifLoaded = true
	if r.kind == ListingNotifications {
		r.last = 0
	}
}

func (r *Resolver) SetHome(list []*diaspora.Post) {
	r.home = list
	r.homeLoaded = true
	if r.kind == ListingHome {
		r.last = 0
	}
}

func (r *Resolver) Notifications() ([]diaspora.Notification, bool) {
	return r.notifications, r.notifLoaded
}

func (r *Resolver) Home() ([]*diaspora.Post, bool) {
	return r.home, r.homeLoaded
}

// Show records that kind was displayed, so numbers now refer to it.
func (r *Resolver) Show(kind ListingKind) {
	if r.kind != kind {
		r.last = 0
	}
	r.kind = kind
}

// Clear drops the tag and both lists, as after a new login.
func (r *Resolver) Clear() {
	*r = Resolver{}
}

// Resolve returns the item at the 1-based index of the listing of the given
// kind, which must be the listing shown last.
func (r *Resolver) Resolve(kind ListingKind, index int) (Target, error) {
	if r.kind == ListingNone {
		return nil, ErrNoListing
	}
	if kind != r.kind {
		return nil, ErrStaleReference
	}

	switch r.kind {
	case ListingNotifications:
		if !r.notifLoaded {
			return nil, ErrAmbiguousReference
		}
		if index < 1 || index > len(r.notifications) {
			return nil, &IndexError{Index: index, Len: len(r.notifications)}
		}
		return NotificationTarget{Position: index, Notification: &r.notifications[index-1]}, nil
	case ListingHome:
		if !r.homeLoaded {
			return nil, ErrAmbiguousReference
		}
		if index < 1 || index > len(r.home) {
			return nil, &IndexError{Index: index, Len: len(r.home)}
		}
		return PostTarget{Position: index, Post: r.home[index-1]}, nil
	}
	return nil, ErrAmbiguousReference
}

// Select records index as the last shown index of the current listing.
func (r *Resolver) Select(index int) {
	r.last = index
}

// RemovePost drops a deleted post from the home list. The last shown index
// moves with the posts after it, so next shows the post that followed the
// deleted one.
func (r *Resolver) RemovePost(id diaspora.ID) {
	for i, post := range r.home {
		if post.ID == id {
			r.home = append(r.home[:i:i], r.home[i+1:]...)
			if r.kind == ListingHome && i < r.last {
				r.last--
			}
			return
		}
	}
}
