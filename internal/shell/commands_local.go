package shell

import (
	"context"
	"strconv"
)

func cmdNotes(ctx context.Context, s *Session, _ string) error {
	if s.notes == nil {
		return &StateError{Msg: "No notes directory is configured."}
	}
	names, err := s.notes.List(ctx)
	if err != nil {
		return remote("notes", err)
	}
	if len(names) == 0 {
		s.printf("There are no notes.\n")
		return nil
	}
	for i, name := range names {
		s.printf("%2d. %s\n", i+1, name)
	}
	return nil
}

func cmdNote(ctx context.Context, s *Session, args string) error {
	name, err := s.noteName(ctx, args, "note")
	if err != nil {
		return err
	}
	text, err := s.notes.Read(name)
	if err != nil {
		return remote("note", err)
	}
	if text != "" && text[len(text)-1] != '\n' {
		text += "\n"
	}
	s.display(ctx, text)
	return nil
}

func cmdEdit(ctx context.Context, s *Session, args string) error {
	name, err := s.noteName(ctx, args, "edit")
	if err != nil {
		return err
	}
	if s.editor == "" {
		return &StateError{Msg: "Use the editor command to set an editor, first."}
	}
	if s.runner == nil {
		return &StateError{Msg: "Running an editor is not possible here."}
	}
	path, err := s.notes.PathFor(name)
	if err != nil {
		return err
	}
	if err := s.runner.Edit(ctx, s.editor, path); err != nil {
		return remote("edit", err)
	}
	return nil
}

// noteName accepts a note name or its number in the notes listing.
func (s *Session) noteName(ctx context.Context, args, verb string) (string, error) {
	if s.notes == nil {
		return "", &StateError{Msg: "No notes directory is configured."}
	}
	if args == "" {
		return "", usagef("Use %s NAME or %s N.", verb, verb)
	}
	n, err := strconv.Atoi(args)
	if err != nil {
		return args, nil
	}
	names, err := s.notes.List(ctx)
	if err != nil {
		return "", remote("notes", err)
	}
	if n < 1 || n > len(names) {
		return "", &IndexError{Index: n, Len: len(names)}
	}
	return names[n-1], nil
}

func cmdHistory(ctx context.Context, s *Session, args string) error {
	if s.history == nil {
		return &StateError{Msg: "No history database is configured."}
	}
	limit := 10
	if args != "" {
		n, err := strconv.Atoi(args)
		if err != nil || n < 1 {
			return usagef("Use history N with a positive number.")
		}
		limit = n
	}
	entries, err := s.history.Recent(ctx, limit)
	if err != nil {
		return remote("history", err)
	}
	for _, entry := range entries {
		s.printf("%s  %s\n", entry.At.Local().Format("2006-01-02 15:04"), entry.Line)
	}
	return nil
}
