package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/glabrego/pona-cli/internal/diaspora"
	"github.com/glabrego/pona-cli/internal/storage"
)

var errBoom = errors.New("boom")

var baseTime = time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

// fakeFeed serves copies of its posts so identity checks go through the cache.
type fakeFeed struct {
	loginErr  error
	markErr   error
	postErr   error
	deleteErr error

	// pages of notifications, newest first within each page.
	pages  [][]diaspora.Notification
	posts  map[diaspora.ID]*diaspora.Post
	stream []*diaspora.Post
	older  []*diaspora.Post

	postCalls       map[diaspora.ID]int
	commentCalls    map[diaspora.ID]int
	marked          []diaspora.ID
	deletedPosts    []diaspora.ID
	deletedComments []string
	beforeTimes     []time.Time
	nextID          int
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{
		posts:        make(map[diaspora.ID]*diaspora.Post),
		postCalls:    make(map[diaspora.ID]int),
		commentCalls: make(map[diaspora.ID]int),
		nextID:       1000,
	}
}

func (f *fakeFeed) addPost(id string, text string, comments ...string) *diaspora.Post {
	post := &diaspora.Post{
		ID:             diaspora.ID(id),
		Author:         diaspora.Author{Name: "Kim", Handle: "kim@pod.example"},
		CreatedAt:      baseTime,
		Text:           text,
		CommentsLoaded: true,
	}
	for i, text := range comments {
		post.AddComment(&diaspora.Comment{
			ID:        diaspora.ID(fmt.Sprintf("%s-c%d", id, i+1)),
			Author:    diaspora.Author{Name: "Lee"},
			CreatedAt: baseTime,
			Text:      text,
		})
	}
	f.posts[post.ID] = post
	return post
}

// notifications builds one page of n post notifications, newest first, with
// ids n..1 pointing at posts p<n>..p1.
func (f *fakeFeed) notifications(n int) []diaspora.Notification {
	page := make([]diaspora.Notification, 0, n)
	for i := n; i >= 1; i-- {
		id := fmt.Sprintf("p%d", i)
		if _, ok := f.posts[diaspora.ID(id)]; !ok {
			f.addPost(id, fmt.Sprintf("Post number %d", i), "first comment")
		}
		page = append(page, diaspora.Notification{
			ID:         diaspora.ID(fmt.Sprintf("n%d", i)),
			Kind:       "also_commented",
			TargetType: "Post",
			TargetID:   diaspora.ID(id),
			Unread:     true,
			CreatedAt:  baseTime.Add(time.Duration(i) * time.Hour),
			Text:       fmt.Sprintf("Notification %d", i),
		})
	}
	return page
}

func copyPost(p *diaspora.Post) *diaspora.Post {
	out := *p
	out.Comments = make([]*diaspora.Comment, len(p.Comments))
	for i, c := range p.Comments {
		cc := *c
		out.Comments[i] = &cc
	}
	return &out
}

func (f *fakeFeed) Login(_ context.Context, _, _ string) error { return f.loginErr }

func (f *fakeFeed) Notifications(_ context.Context, page, _ int) ([]diaspora.Notification, error) {
	if page < 1 || page > len(f.pages) {
		return nil, nil
	}
	return append([]diaspora.Notification(nil), f.pages[page-1]...), nil
}

func (f *fakeFeed) MarkNotificationRead(_ context.Context, id diaspora.ID) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.marked = append(f.marked, id)
	return nil
}

func (f *fakeFeed) Post(_ context.Context, id diaspora.ID) (*diaspora.Post, error) {
	f.postCalls[id]++
	if f.postErr != nil {
		return nil, f.postErr
	}
	post, ok := f.posts[id]
	if !ok {
		return nil, diaspora.ErrNotFound
	}
	return copyPost(post), nil
}

func (f *fakeFeed) Comments(_ context.Context, postID diaspora.ID) ([]*diaspora.Comment, error) {
	f.commentCalls[postID]++
	post, ok := f.posts[postID]
	if !ok {
		return nil, diaspora.ErrNotFound
	}
	return copyPost(post).Comments, nil
}

func (f *fakeFeed) CreatePost(_ context.Context, text string) (*diaspora.Post, error) {
	f.nextID++
	post := f.addPost(fmt.Sprintf("new%d", f.nextID), text)
	return copyPost(post), nil
}

func (f *fakeFeed) DeletePost(_ context.Context, id diaspora.ID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedPosts = append(f.deletedPosts, id)
	delete(f.posts, id)
	return nil
}

func (f *fakeFeed) AddComment(_ context.Context, postID diaspora.ID, text string) (*diaspora.Comment, error) {
	f.nextID++
	return &diaspora.Comment{
		ID:        diaspora.ID(fmt.Sprintf("c%d", f.nextID)),
		Author:    diaspora.Author{Name: "Me"},
		CreatedAt: baseTime,
		Text:      text,
	}, nil
}

func (f *fakeFeed) DeleteComment(_ context.Context, postID, commentID diaspora.ID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedComments = append(f.deletedComments, fmt.Sprintf("%s/%s", postID, commentID))
	return nil
}

func (f *fakeFeed) Stream(context.Context) ([]*diaspora.Post, error) {
	out := make([]*diaspora.Post, len(f.stream))
	for i, p := range f.stream {
		out[i] = copyPost(p)
	}
	return out, nil
}

func (f *fakeFeed) StreamBefore(_ context.Context, t time.Time) ([]*diaspora.Post, error) {
	f.beforeTimes = append(f.beforeTimes, t)
	out := make([]*diaspora.Post, len(f.older))
	for i, p := range f.older {
		out[i] = copyPost(p)
	}
	return out, nil
}

type fakeRunner struct {
	paged  []string
	edited []string
	err    error
}

func (r *fakeRunner) Page(_ context.Context, command, text string) error {
	if r.err != nil {
		return r.err
	}
	r.paged = append(r.paged, command+": "+text)
	return nil
}

func (r *fakeRunner) Edit(_ context.Context, command, path string) error {
	r.edited = append(r.edited, command+" "+path)
	return r.err
}

type fakeNotes struct {
	names []string
	texts map[string]string
}

func (n *fakeNotes) List(context.Context) ([]string, error) { return n.names, nil }

func (n *fakeNotes) Read(name string) (string, error) {
	text, ok := n.texts[name]
	if !ok {
		return "", errors.New("note not found")
	}
	return text, nil
}

func (n *fakeNotes) PathFor(name string) (string, error) { return "/notes/" + name, nil }

type fakeHistory struct {
	lines []string
}

func (h *fakeHistory) Append(_ context.Context, line string, _ time.Time) error {
	h.lines = append(h.lines, line)
	return nil
}

func (h *fakeHistory) Recent(_ context.Context, limit int) ([]storage.HistoryEntry, error) {
	start := max(len(h.lines)-limit, 0)
	out := make([]storage.HistoryEntry, 0, len(h.lines)-start)
	for i, line := range h.lines[start:] {
		out = append(out, storage.HistoryEntry{ID: int64(start + i + 1), Line: line, At: baseTime})
	}
	return out, nil
}

type harness struct {
	c       *qt.C
	s       *Session
	feed    *fakeFeed
	out     *bytes.Buffer
	runner  *fakeRunner
	notes   *fakeNotes
	history *fakeHistory
}

func newHarness(c *qt.C, feed *fakeFeed, shortcuts map[string]string) *harness {
	h := &harness{
		c:       c,
		feed:    feed,
		out:     &bytes.Buffer{},
		runner:  &fakeRunner{},
		notes:   &fakeNotes{texts: map[string]string{}},
		history: &fakeHistory{},
	}
	h.s = New(Options{
		Dial:      func(string) Feed { return feed },
		Notes:     h.notes,
		Runner:    h.runner,
		History:   h.history,
		Out:       h.out,
		Password:  "secret",
		Editor:    "vi",
		Shortcuts: shortcuts,
		Now:       func() time.Time { return baseTime },
	})
	return h
}

// loggedIn returns a harness whose session went through account and login.
func loggedIn(c *qt.C, feed *fakeFeed) *harness {
	h := newHarness(c, feed, nil)
	h.run("account kim@pod.example")
	out := h.run("login")
	c.Assert(out, qt.Contains, "Logged in as kim@pod.example.")
	return h
}

// run executes line and returns what it printed.
func (h *harness) run(line string) string {
	h.out.Reset()
	h.s.Execute(context.Background(), line)
	return h.out.String()
}

func lines(out string) []string {
	return strings.Split(strings.TrimRight(out, "\n"), "\n")
}
