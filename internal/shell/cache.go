package shell

import (
	"context"
	"fmt"

	"github.com/glabrego/pona-cli/internal/diaspora"
)

// PostLoader fetches posts and comments from the pod.
type PostLoader interface {
	Post(ctx context.Context, id diaspora.ID) (*diaspora.Post, error)
	Comments(ctx context.Context, postID diaspora.ID) ([]*diaspora.Comment, error)
}

// Cache holds at most one *diaspora.Post per id for the lifetime of the
// session. Nothing is evicted; only deletions remove entries.
type Cache struct {
	loader PostLoader
	posts  map[diaspora.ID]*diaspora.Post
}

func NewCache(loader PostLoader) *Cache {
	return &Cache{loader: loader, posts: make(map[diaspora.ID]*diaspora.Post)}
}

// Get returns the cached post for id, loading it on a miss. A post adopted
// from the home stream without comments gets them filled in in place.
// Failed loads are not cached.
func (c *Cache) Get(ctx context.Context, id diaspora.ID) (*diaspora.Post, error) {
	if post, ok := c.posts[id]; ok {
		if post.CommentsLoaded {
			return post, nil
		}
		comments, err := c.loader.Comments(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load comments of post %s: %w", id, err)
		}
		post.Comments = comments
		post.CommentsCount = len(comments)
		post.CommentsLoaded = true
		return post, nil
	}

	post, err := c.loader.Post(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load post %s: %w", id, err)
	}
	c.posts[id] = post
	return post, nil
}

// Adopt returns the canonical instance for a post received in a listing,
// storing it when the id is new.
func (c *Cache) Adopt(post *diaspora.Post) *diaspora.Post {
	if cached, ok := c.posts[post.ID]; ok {
		return cached
	}
	c.posts[post.ID] = post
	return post
}

func (c *Cache) Lookup(id diaspora.ID) (*diaspora.Post, bool) {
	post, ok := c.posts[id]
	return post, ok
}

func (c *Cache) Remove(id diaspora.ID) {
	delete(c.posts, id)
}

func (c *Cache) Len() int {
	return len(c.posts)
}
