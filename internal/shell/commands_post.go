package shell

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/glabrego/pona-cli/internal/diaspora"
)

func cmdComments(ctx context.Context, s *Session, args string) error {
	post, err := s.requireCurrent()
	if err != nil {
		return err
	}
	if !post.CommentsLoaded {
		if err := s.requireFeed(); err != nil {
			return err
		}
		rctx, cancel := s.withTimeout(ctx)
		defer cancel()
		if post, err = s.cache.Get(rctx, post.ID); err != nil {
			return remote("comments", err)
		}
	}

	if len(post.Comments) == 0 {
		if err := validSelector(args); err != nil {
			return err
		}
		s.printf("There are no comments on this post.\n")
		return nil
	}
	w, err := s.commentWindow.Apply(args, len(post.Comments))
	if err != nil {
		return err
	}
	if w.Empty() {
		s.printf("There are no comments in that range.\n")
		return nil
	}
	var b strings.Builder
	for i := w.Start; i < w.End; i++ {
		b.WriteString(formatComment(i+1, post.Comments[i]))
	}
	s.display(ctx, b.String())
	return nil
}

func cmdComment(ctx context.Context, s *Session, args string) error {
	if err := s.requireFeed(); err != nil {
		return err
	}
	post, err := s.requireCurrent()
	if err != nil {
		return err
	}
	if args == "" {
		return usagef("Use comment TEXT.")
	}

	rctx, cancel := s.withTimeout(ctx)
	defer cancel()
	comment, err := s.feed.AddComment(rctx, post.ID, args)
	if err != nil {
		return remote("comment", err)
	}
	post.AddComment(comment)
	s.undo.Push(fmt.Sprintf("delete comment id=%s post=%s", comment.ID, post.ID))
	s.printf("Comment %d added.\n", len(post.Comments))
	return nil
}

func cmdPost(ctx context.Context, s *Session, args string) error {
	if err := s.requireFeed(); err != nil {
		return err
	}
	if args == "" {
		return usagef("Use post TEXT.")
	}

	rctx, cancel := s.withTimeout(ctx)
	defer cancel()
	post, err := s.feed.CreatePost(rctx, args)
	if err != nil {
		return remote("post", err)
	}
	post = s.cache.Adopt(post)
	s.setCurrent(post)
	s.undo.Push("delete post id=" + post.ID.String())
	s.printf("Posted. Use undo to delete it again.\n")
	return nil
}

func cmdDelete(ctx context.Context, s *Session, args string) error {
	what, rest := splitCommand(args)
	switch what {
	case "post":
		return s.deletePost(ctx, rest)
	case "comment":
		return s.deleteComment(ctx, rest)
	}
	return usagef("Use delete post [id=ID] or delete comment N|id=ID.")
}

func (s *Session) deletePost(ctx context.Context, args string) error {
	if err := s.requireFeed(); err != nil {
		return err
	}
	opts, positional, err := parseOptions(args)
	if err != nil {
		return err
	}
	if positional != "" {
		return usagef("Use delete post [id=ID].")
	}

	id := opts["id"]
	if id == "" {
		post, err := s.requireCurrent()
		if err != nil {
			return err
		}
		id = post.ID
	}

	rctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.feed.DeletePost(rctx, id); err != nil {
		return remote("delete post", err)
	}
	s.cache.Remove(id)
	s.refs.RemovePost(id)
	if s.current != nil && s.current.ID == id {
		s.setCurrent(nil)
	}
	s.printf("Post deleted.\n")
	return nil
}

func (s *Session) deleteComment(ctx context.Context, args string) error {
	if err := s.requireFeed(); err != nil {
		return err
	}
	opts, positional, err := parseOptions(args)
	if err != nil {
		return err
	}

	rctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var post *diaspora.Post
	if postID := opts["post"]; postID != "" {
		if post, err = s.cache.Get(rctx, postID); err != nil {
			return remote("delete comment", err)
		}
	} else if post, err = s.requireCurrent(); err != nil {
		return err
	}

	commentID := opts["id"]
	switch {
	case commentID != "" && positional != "":
		return usagef("Use either a comment number or id=ID.")
	case commentID == "":
		n, err := strconv.Atoi(positional)
		if err != nil {
			return usagef("Use delete comment N or delete comment id=ID.")
		}
		if n < 1 || n > len(post.Comments) {
			return &IndexError{Index: n, Len: len(post.Comments)}
		}
		commentID = post.Comments[n-1].ID
	}

	if err := s.feed.DeleteComment(rctx, post.ID, commentID); err != nil {
		return remote("delete comment", err)
	}
	post.RemoveComment(commentID)
	s.printf("Comment deleted.\n")
	return nil
}

func cmdUndo(ctx context.Context, s *Session, _ string) error {
	inverse, ok := s.undo.Pop()
	if !ok {
		return &StateError{Msg: "Nothing to undo."}
	}
	s.log.Debug("undo", "command", inverse)
	s.dispatch(ctx, inverse, 0)
	return nil
}

// parseOptions splits "key=value" words from the remaining positional text.
func parseOptions(args string) (map[string]diaspora.ID, string, error) {
	opts := make(map[string]diaspora.ID)
	positional := make([]string, 0, 1)
	for _, word := range strings.Fields(args) {
		key, value, ok := strings.Cut(word, "=")
		if !ok {
			positional = append(positional, word)
			continue
		}
		if value == "" {
			return nil, "", usagef("Missing value for %s.", key)
		}
		opts[key] = diaspora.ID(value)
	}
	return opts, strings.Join(positional, " "), nil
}
