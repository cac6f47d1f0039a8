package shell

import (
	"context"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/glabrego/pona-cli/internal/diaspora"
)

func TestDispatch_UnknownCommand(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c, newFakeFeed(), nil)

	out := h.run("frobnicate now")
	c.Assert(out, qt.Equals, "Unknown command: frobnicate. Type help for a list of commands.\n")
}

func TestDispatch_EOFQuits(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c, newFakeFeed(), nil)

	out := h.run("EOF")
	c.Assert(out, qt.Equals, "Be safe!\n")
	c.Assert(h.s.Done(), qt.IsTrue)
}

func TestDispatch_DefaultShortcut(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c, newFakeFeed(), nil)

	out := h.run("q")
	c.Assert(out, qt.Equals, "Be safe!\n")
	c.Assert(h.s.Done(), qt.IsTrue)
}

func TestDispatch_ConfiguredShortcutExpandsFirstWord(t *testing.T) {
	c := qt.New(t)
	feed := newFakeFeed()
	feed.pages = [][]diaspora.Notification{feed.notifications(7)}
	h := newHarness(c, feed, map[string]string{"ll": "notifications"})
	h.run("account kim@pod.example")
	h.run("login")

	out := h.run("ll all")
	c.Assert(lines(out), qt.HasLen, 7)
	c.Assert(lines(out)[0], qt.Equals, " 1.*2026-02-01 Notification 1")
}

func TestDispatch_ShortcutLoopIsStopped(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c, newFakeFeed(), map[string]string{"loop": "loop again"})

	out := h.run("loop")
	c.Assert(out, qt.Equals, "The shortcut loop expands into itself too often.\n")
}

func TestDispatch_CommandsWinOverShortcuts(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c, newFakeFeed(), map[string]string{"info": "quit"})

	out := h.run("info")
	c.Assert(out, qt.Contains, "Username:")
	c.Assert(h.s.Done(), qt.IsFalse)

	out = h.run("shortcut home notifications")
	c.Assert(out, qt.Equals, "home is already a command.\n")
	out = h.run("shortcut 7 home")
	c.Assert(out, qt.Equals, "A shortcut cannot be a number.\n")
}

func TestDispatch_DefineAndRemoveShortcut(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c, newFakeFeed(), nil)

	c.Assert(h.run("shortcut bye quit"), qt.Equals, "bye is now short for quit.\n")
	c.Assert(h.run("shortcuts"), qt.Contains, "bye")
	c.Assert(h.run("shortcut bye"), qt.Equals, "Shortcut bye removed.\n")
	c.Assert(h.run("shortcut bye"), qt.Equals, "There is no shortcut bye.\n")
	c.Assert(h.run("bye"), qt.Equals, "Unknown command: bye. Type help for a list of commands.\n")
}

func TestDispatch_NumberShowsItem(t *testing.T) {
	c := qt.New(t)
	feed := newFakeFeed()
	feed.pages = [][]diaspora.Notification{feed.notifications(7)}
	h := loggedIn(c, feed)

	out := h.run("3")
	c.Assert(out, qt.Contains, "Post number 3")
	c.Assert(h.s.current.ID, qt.Equals, diaspora.ID("p3"))
}

func TestDispatch_EmptyLineShowsNext(t *testing.T) {
	c := qt.New(t)
	feed := newFakeFeed()
	feed.pages = [][]diaspora.Notification{feed.notifications(7)}
	h := loggedIn(c, feed)

	h.run("3")
	out := h.run("")
	c.Assert(out, qt.Contains, "Post number 4")
	c.Assert(h.s.refs.LastIndex(), qt.Equals, 4)

	out = h.run("previous")
	c.Assert(out, qt.Contains, "Post number 3")
	c.Assert(feed.postCalls["p3"], qt.Equals, 1)
}

func TestDispatch_NotConnected(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c, newFakeFeed(), nil)

	for _, line := range []string{"notifications", "home", "3", "post hello"} {
		c.Assert(h.run(line), qt.Equals, "Use the login command, first.\n", qt.Commentf("line %q", line))
	}
}

func TestExecute_HistorySkipsPasswords(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c, newFakeFeed(), nil)

	c.Assert(h.run("password hunter2"), qt.Equals, "Password set\n")
	h.run("info")
	h.run("")
	h.run("EOF")

	c.Assert(h.history.lines, qt.DeepEquals, []string{"info"})

	out := h.run("history")
	c.Assert(out, qt.Contains, "info")
	c.Assert(out, qt.Not(qt.Contains), "hunter2")
}

func TestRunQueued_DoesNotRecordHistory(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c, newFakeFeed(), nil)

	h.s.Enqueue("account kim@pod.example", "quit", "info")
	h.s.RunQueued(context.Background())

	c.Assert(h.s.Done(), qt.IsTrue)
	c.Assert(h.history.lines, qt.HasLen, 0)
	c.Assert(h.out.String(), qt.Equals, "Be safe!\n")
	c.Assert(h.s.username, qt.Equals, "kim")
	c.Assert(h.s.pod, qt.Equals, "pod.example")
}

func TestAccount_RequiresAtSign(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c, newFakeFeed(), nil)

	out := h.run("account kim")
	c.Assert(out, qt.Contains, "The account must contain an @ character")

	h.run("username lee")
	h.run("pod other.example")
	out = h.run("info")
	c.Assert(out, qt.Contains, "lee")
	c.Assert(out, qt.Contains, "other.example")
}

func TestLogin_RequiresPassword(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c, newFakeFeed(), nil)
	h.run("account kim@pod.example")
	h.run("password")

	out := h.run("login")
	c.Assert(out, qt.Equals, "Use the password command to set a password for kim\n")
}

func TestLogin_FailureKeepsSessionDisconnected(t *testing.T) {
	c := qt.New(t)
	feed := newFakeFeed()
	feed.loginErr = diaspora.ErrUnauthorized
	h := newHarness(c, feed, nil)
	h.run("account kim@pod.example")

	out := h.run("login")
	c.Assert(out, qt.Contains, "login:")
	c.Assert(h.run("home"), qt.Equals, "Use the login command, first.\n")
}

func TestLogin_ResetsSessionState(t *testing.T) {
	c := qt.New(t)
	feed := newFakeFeed()
	feed.pages = [][]diaspora.Notification{feed.notifications(3)}
	h := loggedIn(c, feed)

	h.run("2")
	h.run("comment hello")
	c.Assert(h.s.cache.Len(), qt.Equals, 1)
	c.Assert(h.s.undo.Len(), qt.Equals, 1)

	out := h.run("login")
	c.Assert(out, qt.Contains, "Logged in as kim@pod.example.")
	c.Assert(h.s.cache.Len(), qt.Equals, 0)
	c.Assert(h.s.current, qt.IsNil)
	c.Assert(h.run("undo"), qt.Equals, "Nothing to undo.\n")
	c.Assert(h.run("show"), qt.Equals, "Use the show command to select a post, first.\n")
}

func TestHelp(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c, newFakeFeed(), nil)

	out := h.run("help")
	c.Assert(out, qt.Contains, "notifications")
	c.Assert(out, qt.Contains, "A bare number shows that item")

	c.Assert(h.run("help undo"), qt.Contains, "undo\n")
	c.Assert(h.run("help nope"), qt.Equals, "There is no command nope.\n")
}
