package shell

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/glabrego/pona-cli/internal/diaspora"
)

func cmdNotifications(ctx context.Context, s *Session, args string) error {
	if err := s.requireFeed(); err != nil {
		return err
	}

	selector := args
	switch args {
	case "reload":
		if err := s.loadNotifications(ctx); err != nil {
			return err
		}
		selector = ""
	case "more":
		added, err := s.moreNotifications(ctx)
		if err != nil {
			return err
		}
		if added == 0 {
			s.printf("There are no older notifications.\n")
			return nil
		}
		selector = fmt.Sprintf("1-%d", added)
	default:
		if err := validSelector(selector); err != nil {
			return err
		}
		if _, loaded := s.refs.Notifications(); !loaded {
			if err := s.loadNotifications(ctx); err != nil {
				return err
			}
		}
	}

	list, _ := s.refs.Notifications()
	if len(list) == 0 {
		s.printf("There are no notifications.\n")
		return nil
	}
	w, err := s.notifWindow.Apply(selector, len(list))
	if err != nil {
		return err
	}
	if w.Empty() {
		s.printf("There are no notifications in that range.\n")
		return nil
	}
	for i := w.Start; i < w.End; i++ {
		s.printf("%s\n", formatNotificationLine(i+1, list[i]))
	}
	s.refs.Show(ListingNotifications)
	return nil
}

// loadNotifications replaces the list with the newest page, oldest first.
func (s *Session) loadNotifications(ctx context.Context) error {
	rctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	list, err := s.feed.Notifications(rctx, 1, s.perPage)
	if err != nil {
		return remote("notifications", err)
	}
	reverse(list)
	s.refs.SetNotifications(list)
	s.notifPage = 1
	s.log.Debug("fetched notifications", "count", len(list), "duration", time.Since(start))
	return nil
}

// moreNotifications prepends the next older page and returns how many
// notifications were new.
func (s *Session) moreNotifications(ctx context.Context) (int, error) {
	if _, loaded := s.refs.Notifications(); !loaded {
		if err := s.loadNotifications(ctx); err != nil {
			return 0, err
		}
	}
	rctx, cancel := s.withTimeout(ctx)
	defer cancel()

	page := s.notifPage + 1
	older, err := s.feed.Notifications(rctx, page, s.perPage)
	if err != nil {
		return 0, remote("notifications", err)
	}

	current, _ := s.refs.Notifications()
	seen := make(map[diaspora.ID]struct{}, len(current))
	for _, n := range current {
		seen[n.ID] = struct{}{}
	}
	fresh := make([]diaspora.Notification, 0, len(older))
	for _, n := range older {
		if _, ok := seen[n.ID]; ok {
			continue
		}
		fresh = append(fresh, n)
	}
	reverse(fresh)

	merged := make([]diaspora.Notification, 0, len(fresh)+len(current))
	merged = append(merged, fresh...)
	merged = append(merged, current...)
	s.refs.SetNotifications(merged)
	s.notifPage = page
	s.log.Debug("fetched older notifications", "page", page, "count", len(fresh))
	return len(fresh), nil
}

func cmdHome(ctx context.Context, s *Session, args string) error {
	if err := s.requireFeed(); err != nil {
		return err
	}

	selector := args
	switch args {
	case "reload":
		if err := s.loadHome(ctx); err != nil {
			return err
		}
		selector = ""
	case "more":
		added, err := s.moreHome(ctx)
		if err != nil {
			return err
		}
		if added == 0 {
			s.printf("There are no older posts.\n")
			return nil
		}
		selector = fmt.Sprintf("1-%d", added)
	default:
		if err := validSelector(selector); err != nil {
			return err
		}
		if _, loaded := s.refs.Home(); !loaded {
			if err := s.loadHome(ctx); err != nil {
				return err
			}
		}
	}

	list, _ := s.refs.Home()
	if len(list) == 0 {
		s.printf("The home stream is empty.\n")
		return nil
	}
	w, err := s.homeWindow.Apply(selector, len(list))
	if err != nil {
		return err
	}
	if w.Empty() {
		s.printf("There are no posts in that range.\n")
		return nil
	}
	for i := w.Start; i < w.End; i++ {
		s.printf("%s\n", formatPostLine(i+1, list[i]))
	}
	s.refs.Show(ListingHome)
	return nil
}

func (s *Session) loadHome(ctx context.Context) error {
	rctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	posts, err := s.feed.Stream(rctx)
	if err != nil {
		return remote("home", err)
	}
	s.refs.SetHome(s.adoptAll(posts))
	s.log.Debug("fetched home stream", "count", len(posts), "duration", time.Since(start))
	return nil
}

func (s *Session) moreHome(ctx context.Context) (int, error) {
	current, loaded := s.refs.Home()
	if !loaded || len(current) == 0 {
		if err := s.loadHome(ctx); err != nil {
			return 0, err
		}
		current, _ = s.refs.Home()
		if len(current) == 0 {
			return 0, nil
		}
	}
	rctx, cancel := s.withTimeout(ctx)
	defer cancel()

	older, err := s.feed.StreamBefore(rctx, current[0].CreatedAt)
	if err != nil {
		return 0, remote("home", err)
	}

	seen := make(map[diaspora.ID]struct{}, len(current))
	for _, p := range current {
		seen[p.ID] = struct{}{}
	}
	fresh := make([]*diaspora.Post, 0, len(older))
	for _, p := range older {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		fresh = append(fresh, p)
	}
	fresh = s.adoptAll(fresh)

	merged := make([]*diaspora.Post, 0, len(fresh)+len(current))
	merged = append(merged, fresh...)
	merged = append(merged, current...)
	s.refs.SetHome(merged)
	return len(fresh), nil
}

// adoptAll reverses a newest-first page and swaps in cached instances.
func (s *Session) adoptAll(posts []*diaspora.Post) []*diaspora.Post {
	out := make([]*diaspora.Post, len(posts))
	for i, p := range posts {
		out[len(posts)-1-i] = s.cache.Adopt(p)
	}
	return out
}

func cmdReload(ctx context.Context, s *Session, _ string) error {
	switch s.refs.Kind() {
	case ListingNotifications:
		return cmdNotifications(ctx, s, "reload")
	case ListingHome:
		return cmdHome(ctx, s, "reload")
	}
	return ErrNoListing
}

func cmdShow(ctx context.Context, s *Session, args string) error {
	if args == "" {
		post, err := s.requireCurrent()
		if err != nil {
			return err
		}
		s.display(ctx, formatPost(post))
		return nil
	}
	index, err := strconv.Atoi(args)
	if err != nil {
		return usagef("Use show with a number: %s", args)
	}
	return s.show(ctx, index)
}

// show resolves index against the listing shown last, loads the post and
// only then commits the selection.
func (s *Session) show(ctx context.Context, index int) error {
	if err := s.requireFeed(); err != nil {
		return err
	}
	target, err := s.refs.Resolve(s.refs.Kind(), index)
	if err != nil {
		return err
	}

	rctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var post *diaspora.Post
	switch t := target.(type) {
	case NotificationTarget:
		if !t.Notification.RefersToPost() {
			s.refs.Select(index)
			s.printf("%s\nThis notification does not refer to a post.\n", formatNotificationLine(index, *t.Notification))
			return nil
		}
		post, err = s.cache.Get(rctx, t.Notification.TargetID)
		if err != nil {
			return remote("show", err)
		}
		if t.Notification.Unread {
			if err := s.feed.MarkNotificationRead(rctx, t.Notification.ID); err != nil {
				s.log.Warn("mark notification read failed", "id", t.Notification.ID, "error", err)
			} else {
				t.Notification.Unread = false
			}
		}
	case PostTarget:
		post, err = s.cache.Get(rctx, t.Post.ID)
		if err != nil {
			return remote("show", err)
		}
	default:
		return ErrAmbiguousReference
	}

	s.refs.Select(index)
	s.setCurrent(post)
	s.display(ctx, formatPost(post))
	return nil
}

func cmdNext(ctx context.Context, s *Session, _ string) error {
	return s.step(ctx, 1)
}

func cmdPrevious(ctx context.Context, s *Session, _ string) error {
	return s.step(ctx, -1)
}

func (s *Session) step(ctx context.Context, delta int) error {
	kind := s.refs.Kind()
	if kind == ListingNone {
		return ErrNoListing
	}
	index := s.refs.LastIndex()
	if index == 0 {
		// Nothing shown from this listing yet: start at the edge of the
		// window that is on screen.
		w, ok := s.paginator(kind).Last()
		switch {
		case ok && delta > 0:
			return s.show(ctx, w.Start+1)
		case ok:
			return s.show(ctx, w.End)
		default:
			return s.show(ctx, 1)
		}
	}
	return s.show(ctx, index+delta)
}

func validSelector(selector string) error {
	var p Paginator
	_, err := p.Apply(selector, 0)
	return err
}

func reverse[T any](items []T) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}
