package diaspora

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a post is deleted, private or otherwise
	// unavailable to the logged in user.
	ErrNotFound = errors.New("not found or not accessible")
	// ErrUnauthorized is returned for rejected credentials or an expired session.
	ErrUnauthorized = errors.New("invalid credentials")
)

// Client talks to a single pod. It keeps the session cookie and the CSRF token
// obtained at login.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func NewClient(pod string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	hc := *httpClient
	if hc.Jar == nil {
		jar, _ := cookiejar.New(nil)
		hc.Jar = jar
	}
	// Sign-in answers with a redirect on success, so redirects are not followed.
	hc.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

	baseURL := strings.TrimSpace(pod)
	if !strings.Contains(baseURL, "://") {
		baseURL = "https://" + baseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &hc,
	}
}

func (c *Client) Login(ctx context.Context, username, password string) error {
	token, err := c.fetchToken(ctx, "/users/sign_in")
	if err != nil {
		return fmt.Errorf("load sign in page: %w", err)
	}

	form := url.Values{}
	form.Set("user[username]", username)
	form.Set("user[password]", password)
	form.Set("user[remember_me]", "1")
	form.Set("authenticity_token", token)

	req, err := c.newRequest(ctx, http.MethodPost, "/users/sign_in", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sign in request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusFound, http.StatusSeeOther:
	case http.StatusOK, http.StatusUnauthorized:
		return fmt.Errorf("authentication failed: %w", ErrUnauthorized)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("sign in failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	token, err = c.fetchToken(ctx, "/stream")
	if err != nil {
		return fmt.Errorf("load stream page: %w", err)
	}
	c.token = token
	return nil
}

// Notifications returns one page of notifications, newest first.
func (c *Client) Notifications(ctx context.Context, page, perPage int) ([]Notification, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	q := make(url.Values)
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))

	var raw []map[string]json.RawMessage
	if err := c.getJSON(ctx, "/notifications.json?"+q.Encode(), "list notifications", &raw); err != nil {
		return nil, err
	}
	return decodeNotifications(raw)
}

func (c *Client) MarkNotificationRead(ctx context.Context, id ID) error {
	payload := map[string]bool{"set_unread": false}
	return c.sendJSON(ctx, http.MethodPut, "/notifications/"+url.PathEscape(id.String())+".json", "mark notification read", payload, nil)
}

// Post fetches a post together with its comments.
func (c *Client) Post(ctx context.Context, id ID) (*Post, error) {
	var raw postJSON
	if err := c.getJSON(ctx, "/posts/"+url.PathEscape(id.String())+".json", "fetch post "+id.String(), &raw); err != nil {
		return nil, err
	}
	post := raw.toPost()

	comments, err := c.Comments(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	post.Comments = comments
	post.CommentsCount = len(comments)
	post.CommentsLoaded = true
	return post, nil
}

func (c *Client) Comments(ctx context.Context, postID ID) ([]*Comment, error) {
	var comments []*Comment
	if err := c.getJSON(ctx, "/posts/"+url.PathEscape(postID.String())+"/comments.json", "list comments", &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (c *Client) CreatePost(ctx context.Context, text string) (*Post, error) {
	payload := map[string]any{
		"status_message": map[string]string{"text": text},
		"aspect_ids":     "public",
	}
	var raw postJSON
	if err := c.sendJSON(ctx, http.MethodPost, "/status_messages", "create post", payload, &raw); err != nil {
		return nil, err
	}
	post := raw.toPost()
	post.CommentsLoaded = true
	return post, nil
}

func (c *Client) DeletePost(ctx context.Context, id ID) error {
	return c.sendJSON(ctx, http.MethodDelete, "/posts/"+url.PathEscape(id.String()), "delete post", nil, nil)
}

func (c *Client) AddComment(ctx context.Context, postID ID, text string) (*Comment, error) {
	var comment Comment
	payload := map[string]string{"text": text}
	if err := c.sendJSON(ctx, http.MethodPost, "/posts/"+url.PathEscape(postID.String())+"/comments", "add comment", payload, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (c *Client) DeleteComment(ctx context.Context, postID, commentID ID) error {
	path := "/posts/" + url.PathEscape(postID.String()) + "/comments/" + url.PathEscape(commentID.String())
	return c.sendJSON(ctx, http.MethodDelete, path, "delete comment", nil, nil)
}

// Stream returns the home stream, newest first. Comments are not included.
func (c *Client) Stream(ctx context.Context) ([]*Post, error) {
	return c.stream(ctx, "/stream.json")
}

// StreamBefore returns the page of the home stream older than t.
func (c *Client) StreamBefore(ctx context.Context, t time.Time) ([]*Post, error) {
	q := make(url.Values)
	q.Set("max_time", strconv.FormatInt(t.Unix(), 10))
	return c.stream(ctx, "/stream.json?"+q.Encode())
}

func (c *Client) stream(ctx context.Context, path string) ([]*Post, error) {
	var raw []postJSON
	if err := c.getJSON(ctx, path, "list stream", &raw); err != nil {
		return nil, err
	}
	posts := make([]*Post, 0, len(raw))
	for _, p := range raw {
		posts = append(posts, p.toPost())
	}
	return posts, nil
}

func (c *Client) fetchToken(ctx context.Context, path string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/html")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusError("load "+path, resp)
	}
	return csrfToken(resp.Body)
}

func (c *Client) getJSON(ctx context.Context, path, resource string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resource, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", resource, err)
	}
	return nil
}

func (c *Client) sendJSON(ctx context.Context, method, path, resource string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s payload: %w", resource, err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resource, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", resource, err)
	}
	return nil
}

func statusError(resource string, resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusNotFound, http.StatusForbidden:
		return fmt.Errorf("%s: %w", resource, ErrNotFound)
	case http.StatusUnauthorized, http.StatusFound:
		return fmt.Errorf("%s: %w", resource, ErrUnauthorized)
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("%s failed with status %d: %s", resource, resp.StatusCode, strings.TrimSpace(string(body)))
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	fullURL := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if c.token != "" {
		req.Header.Set("X-CSRF-Token", c.token)
	}
	return req, nil
}
