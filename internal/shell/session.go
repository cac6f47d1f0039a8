// Package shell is the session engine behind the interactive prompt. It turns
// command lines and bare numbers into feed operations and keeps the shown
// listings, the post cache, the display windows and the undo stack consistent.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/glabrego/pona-cli/internal/diaspora"
	"github.com/glabrego/pona-cli/internal/observability"
	"github.com/glabrego/pona-cli/internal/storage"
)

const (
	defaultTimeout    = 20 * time.Second
	defaultPerPage    = 20
	maxExpansionDepth = 8
)

// Feed is the pod API used by the session.
type Feed interface {
	PostLoader
	Login(ctx context.Context, username, password string) error
	Notifications(ctx context.Context, page, perPage int) ([]diaspora.Notification, error)
	MarkNotificationRead(ctx context.Context, id diaspora.ID) error
	CreatePost(ctx context.Context, text string) (*diaspora.Post, error)
	DeletePost(ctx context.Context, id diaspora.ID) error
	AddComment(ctx context.Context, postID diaspora.ID, text string) (*diaspora.Comment, error)
	DeleteComment(ctx context.Context, postID, commentID diaspora.ID) error
	Stream(ctx context.Context) ([]*diaspora.Post, error)
	StreamBefore(ctx context.Context, t time.Time) ([]*diaspora.Post, error)
}

// Dialer creates a Feed for a pod host.
type Dialer func(pod string) Feed

type Notes interface {
	List(ctx context.Context) ([]string, error)
	Read(name string) (string, error)
	PathFor(name string) (string, error)
}

// Runner starts the pager and the editor.
type Runner interface {
	Page(ctx context.Context, command, text string) error
	Edit(ctx context.Context, command, path string) error
}

type History interface {
	Append(ctx context.Context, line string, at time.Time) error
	Recent(ctx context.Context, limit int) ([]storage.HistoryEntry, error)
}

type Options struct {
	Dial      Dialer
	Notes     Notes
	Runner    Runner
	History   History
	Logger    *slog.Logger
	Out       io.Writer
	Password  string
	Pager     string
	Editor    string
	Shortcuts map[string]string
	Timeout   time.Duration
	PerPage   int
	Now       func() time.Time
}

// DefaultShortcuts are installed in every session before configured ones.
var DefaultShortcuts = map[string]string{
	"q": "quit",
	"n": "next",
	"p": "previous",
	"c": "comments",
	"r": "reload",
	"h": "home",
	"s": "show",
}

// Session is the state shared by all commands of one running shell.
type Session struct {
	username string
	pod      string
	password string

	feed    Feed
	cache   *Cache
	refs    Resolver
	current *diaspora.Post

	notifWindow   Paginator
	homeWindow    Paginator
	commentWindow Paginator
	notifPage     int

	undo      UndoStack
	shortcuts map[string]string
	pager     string
	editor    string

	queue []string
	done  bool

	out      io.Writer
	dial     Dialer
	notes    Notes
	runner   Runner
	history  History
	log      *slog.Logger
	timeout  time.Duration
	perPage  int
	now      func() time.Time
	commands map[string]command
}

func New(opts Options) *Session {
	s := &Session{
		password:  opts.Password,
		cache:     NewCache(nil),
		shortcuts: make(map[string]string, len(DefaultShortcuts)+len(opts.Shortcuts)),
		pager:     opts.Pager,
		editor:    opts.Editor,
		out:       opts.Out,
		dial:      opts.Dial,
		notes:     opts.Notes,
		runner:    opts.Runner,
		history:   opts.History,
		log:       opts.Logger,
		timeout:   opts.Timeout,
		perPage:   opts.PerPage,
		now:       opts.Now,
	}
	for k, v := range DefaultShortcuts {
		s.shortcuts[k] = v
	}
	for k, v := range opts.Shortcuts {
		s.shortcuts[k] = v
	}
	if s.out == nil {
		s.out = os.Stdout
	}
	if s.log == nil {
		s.log = observability.Logger()
	}
	if s.timeout <= 0 {
		s.timeout = defaultTimeout
	}
	if s.perPage <= 0 {
		s.perPage = defaultPerPage
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.commands = commandTable()
	return s
}

// SetOutput redirects command output.
func (s *Session) SetOutput(w io.Writer) { s.out = w }

func (s *Session) SetRunner(r Runner) { s.runner = r }

// Done reports whether the quit command ran.
func (s *Session) Done() bool { return s.done }

// Enqueue appends lines to run before interactive input.
func (s *Session) Enqueue(lines ...string) {
	s.queue = append(s.queue, lines...)
}

// RunQueued executes queued lines in order. Queued lines are not recorded
// in the history.
func (s *Session) RunQueued(ctx context.Context) {
	for len(s.queue) > 0 && !s.done {
		line := s.queue[0]
		s.queue = s.queue[1:]
		s.dispatch(ctx, line, 0)
	}
}

// Execute runs one line typed by the user.
func (s *Session) Execute(ctx context.Context, line string) {
	s.record(ctx, line)
	s.dispatch(ctx, line, 0)
}

func (s *Session) record(ctx context.Context, line string) {
	line = strings.TrimSpace(line)
	if s.history == nil || line == "" || line == "EOF" {
		return
	}
	if name, _ := splitCommand(line); name == "password" {
		return
	}
	if err := s.history.Append(ctx, line, s.now()); err != nil {
		s.log.Warn("record history failed", "error", err)
	}
}

func (s *Session) dispatch(ctx context.Context, line string, depth int) {
	line = strings.TrimSpace(line)
	if line == "EOF" {
		line = "quit"
	}
	if line == "" {
		line = "next"
	}

	name, args := splitCommand(line)
	if cmd, ok := s.commands[name]; ok {
		s.report(name, cmd.run(ctx, s, args))
		return
	}
	if expansion, ok := s.shortcuts[name]; ok {
		if depth >= maxExpansionDepth {
			s.report(name, usagef("The shortcut %s expands into itself too often.", name))
			return
		}
		s.dispatch(ctx, strings.Replace(line, name, expansion, 1), depth+1)
		return
	}
	if isNumber(name) {
		s.dispatch(ctx, "show "+line, depth+1)
		return
	}
	s.printf("Unknown command: %s. Type help for a list of commands.\n", name)
}

func (s *Session) report(name string, err error) {
	if err == nil {
		return
	}
	var re *RemoteError
	if errors.As(err, &re) {
		s.log.Warn("command failed", "command", name, "op", re.Op, "error", re.Err)
	} else {
		s.log.Debug("command rejected", "command", name, "error", err)
	}
	s.printf("%s\n", err)
}

func (s *Session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *Session) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Session) requireFeed() error {
	if s.feed == nil {
		return ErrNotConnected
	}
	return nil
}

func (s *Session) requireCurrent() (*diaspora.Post, error) {
	if s.current == nil {
		return nil, ErrNoCurrentPost
	}
	return s.current, nil
}

// setCurrent makes post the current post. Switching to another post resets
// the comment window.
func (s *Session) setCurrent(post *diaspora.Post) {
	if s.current == nil || post == nil || s.current.ID != post.ID {
		s.commentWindow.Reset()
	}
	s.current = post
}

// display writes text through the pager when one is configured.
func (s *Session) display(ctx context.Context, text string) {
	if s.pager != "" && s.runner != nil {
		err := s.runner.Page(ctx, s.pager, text)
		if err == nil {
			return
		}
		s.printf("%s\n", remote("pager", err))
	}
	s.printf("%s", text)
}

func (s *Session) paginator(kind ListingKind) *Paginator {
	switch kind {
	case ListingNotifications:
		return &s.notifWindow
	case ListingHome:
		return &s.homeWindow
	}
	return nil
}

func splitCommand(line string) (string, string) {
	name, args, _ := strings.Cut(strings.TrimSpace(line), " ")
	return name, strings.TrimSpace(args)
}

func isNumber(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}
