package shell

import (
	"context"
	"sort"
	"strings"

	"github.com/gosuri/uitable"
)

type command struct {
	usage string
	help  string
	run   func(ctx context.Context, s *Session, args string) error
}

func commandTable() map[string]command {
	return map[string]command{
		"account":       {usage: "account USER@POD", help: "Set username and pod.", run: cmdAccount},
		"username":      {usage: "username NAME", help: "Set the username.", run: cmdUsername},
		"pod":           {usage: "pod HOST", help: "Set the pod.", run: cmdPod},
		"password":      {usage: "password [SECRET]", help: "Set or unset the password.", run: cmdPassword},
		"info":          {usage: "info", help: "Show account and session details.", run: cmdInfo},
		"login":         {usage: "login [USER@POD]", help: "Log in and show notifications.", run: cmdLogin},
		"notifications": {usage: "notifications [N|A-B|all|next|previous|reload|more]", help: "List notifications.", run: cmdNotifications},
		"home":          {usage: "home [N|A-B|all|next|previous|reload|more]", help: "List the home stream.", run: cmdHome},
		"reload":        {usage: "reload", help: "Reload the list shown last.", run: cmdReload},
		"show":          {usage: "show [N]", help: "Show item N of the list shown last, or the current post.", run: cmdShow},
		"next":          {usage: "next", help: "Show the next item.", run: cmdNext},
		"previous":      {usage: "previous", help: "Show the previous item.", run: cmdPrevious},
		"comments":      {usage: "comments [N|A-B|all|next|previous]", help: "List comments of the current post.", run: cmdComments},
		"comment":       {usage: "comment TEXT", help: "Comment on the current post.", run: cmdComment},
		"post":          {usage: "post TEXT", help: "Write a new public post.", run: cmdPost},
		"delete":        {usage: "delete post [id=ID] | delete comment N|id=ID [post=ID]", help: "Delete a post or a comment.", run: cmdDelete},
		"undo":          {usage: "undo", help: "Undo the last post or comment.", run: cmdUndo},
		"notes":         {usage: "notes", help: "List local notes.", run: cmdNotes},
		"note":          {usage: "note NAME|N", help: "Show a local note.", run: cmdNote},
		"edit":          {usage: "edit NAME|N", help: "Edit a local note.", run: cmdEdit},
		"pager":         {usage: "pager [COMMAND|off]", help: "Show or set the pager.", run: cmdPager},
		"editor":        {usage: "editor [COMMAND]", help: "Show or set the editor.", run: cmdEditor},
		"shortcuts":     {usage: "shortcuts", help: "List shortcuts.", run: cmdShortcuts},
		"shortcut":      {usage: "shortcut TOKEN [EXPANSION]", help: "Define or remove a shortcut.", run: cmdShortcut},
		"history":       {usage: "history [N]", help: "List recently entered commands.", run: cmdHistory},
		"help":          {usage: "help [COMMAND]", help: "List commands.", run: cmdHelp},
		"quit":          {usage: "quit", help: "Exit.", run: cmdQuit},
	}
}

func cmdAccount(_ context.Context, s *Session, args string) error {
	username, pod, ok := strings.Cut(args, "@")
	if !ok || username == "" || pod == "" || strings.Contains(pod, "@") {
		return usagef("The account must contain an @ character, e.g. kensanata@pluspora.com.\nUse the account command to set the account.")
	}
	s.username = username
	s.pod = pod
	return nil
}

func cmdUsername(_ context.Context, s *Session, args string) error {
	if args == "" {
		return usagef("Use username NAME.")
	}
	s.username = args
	return nil
}

func cmdPod(_ context.Context, s *Session, args string) error {
	if args == "" {
		return usagef("Use pod HOST, e.g. pod pluspora.com.")
	}
	s.pod = args
	return nil
}

func cmdPassword(_ context.Context, s *Session, args string) error {
	s.password = args
	if s.password == "" {
		s.printf("Password unset\n")
	} else {
		s.printf("Password set\n")
	}
	return nil
}

func cmdInfo(_ context.Context, s *Session, _ string) error {
	password := "unset"
	if s.password != "" {
		password = "set"
	}
	connected := "no"
	if s.feed != nil {
		connected = "yes"
	}
	pager := s.pager
	if pager == "" {
		pager = "off"
	}

	table := uitable.New()
	table.AddRow("Username:", orUnset(s.username))
	table.AddRow("Pod:", orUnset(s.pod))
	table.AddRow("Password:", password)
	table.AddRow("Logged in:", connected)
	table.AddRow("Listing:", s.refs.Kind().String())
	table.AddRow("Cached posts:", s.cache.Len())
	table.AddRow("Undo entries:", s.undo.Len())
	table.AddRow("Pager:", pager)
	table.AddRow("Editor:", orUnset(s.editor))
	s.printf("%s\n", table)
	return nil
}

func cmdLogin(ctx context.Context, s *Session, args string) error {
	if args != "" {
		if err := cmdAccount(ctx, s, args); err != nil {
			return err
		}
	}
	if s.username == "" || s.pod == "" {
		return &StateError{Msg: "Use the account command to set username and pod, first."}
	}
	if s.password == "" {
		return &StateError{Msg: "Use the password command to set a password for " + s.username}
	}
	if s.dial == nil {
		return &StateError{Msg: "No connection to a pod is possible."}
	}

	feed := s.dial(s.pod)
	lctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := feed.Login(lctx, s.username, s.password); err != nil {
		return remote("login", err)
	}

	s.feed = feed
	s.cache = NewCache(feed)
	s.refs.Clear()
	s.current = nil
	s.notifWindow.Reset()
	s.homeWindow.Reset()
	s.commentWindow.Reset()
	s.notifPage = 0
	s.undo = UndoStack{}
	s.log.Info("logged in", "username", s.username, "pod", s.pod)
	s.printf("Logged in as %s@%s.\n", s.username, s.pod)
	return cmdNotifications(ctx, s, "")
}

func cmdQuit(_ context.Context, s *Session, _ string) error {
	s.printf("Be safe!\n")
	s.done = true
	return nil
}

func cmdHelp(_ context.Context, s *Session, args string) error {
	if args != "" {
		cmd, ok := s.commands[args]
		if !ok {
			return usagef("There is no command %s.", args)
		}
		s.printf("%s\n  %s\n", cmd.usage, cmd.help)
		return nil
	}

	names := make([]string, 0, len(s.commands))
	for name := range s.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	table := uitable.New()
	table.MaxColWidth = 60
	for _, name := range names {
		table.AddRow(s.commands[name].usage, s.commands[name].help)
	}
	s.printf("%s\nA bare number shows that item, an empty line shows the next one.\n", table)
	return nil
}

func cmdShortcuts(_ context.Context, s *Session, _ string) error {
	tokens := make([]string, 0, len(s.shortcuts))
	for token := range s.shortcuts {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)

	table := uitable.New()
	table.AddRow("SHORTCUT", "EXPANSION")
	for _, token := range tokens {
		table.AddRow(token, s.shortcuts[token])
	}
	s.printf("%s\n", table)
	return nil
}

func cmdShortcut(_ context.Context, s *Session, args string) error {
	token, expansion := splitCommand(args)
	if token == "" {
		return usagef("Use shortcut TOKEN EXPANSION, or shortcut TOKEN to remove it.")
	}
	if _, ok := s.commands[token]; ok {
		return usagef("%s is already a command.", token)
	}
	if isNumber(token) {
		return usagef("A shortcut cannot be a number.")
	}
	if expansion == "" {
		if _, ok := s.shortcuts[token]; !ok {
			return &StateError{Msg: "There is no shortcut " + token + "."}
		}
		delete(s.shortcuts, token)
		s.printf("Shortcut %s removed.\n", token)
		return nil
	}
	s.shortcuts[token] = expansion
	s.printf("%s is now short for %s.\n", token, expansion)
	return nil
}

func cmdPager(_ context.Context, s *Session, args string) error {
	switch args {
	case "":
		if s.pager == "" {
			s.printf("No pager is used.\n")
		} else {
			s.printf("Pager: %s\n", s.pager)
		}
	case "off":
		s.pager = ""
		s.printf("No pager is used.\n")
	default:
		s.pager = args
		s.printf("Pager: %s\n", s.pager)
	}
	return nil
}

func cmdEditor(_ context.Context, s *Session, args string) error {
	if args != "" {
		s.editor = args
	}
	s.printf("Editor: %s\n", orUnset(s.editor))
	return nil
}

func orUnset(v string) string {
	if v == "" {
		return "unset"
	}
	return v
}
