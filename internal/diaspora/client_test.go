package diaspora

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const signInPage = `<!DOCTYPE html><html><head>
<meta charset="utf-8">
<meta name="csrf-param" content="authenticity_token">
<meta name="csrf-token" content="%s">
</head><body></body></html>`

func pageWithToken(token string) string {
	return strings.Replace(signInPage, "%s", token, 1)
}

func TestLogin_Success(t *testing.T) {
	var writeToken string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/users/sign_in":
			_, _ = w.Write([]byte(pageWithToken("sign-in-token")))
		case r.Method == http.MethodPost && r.URL.Path == "/users/sign_in":
			if err := r.ParseForm(); err != nil {
				t.Fatalf("parse form: %v", err)
			}
			if got := r.PostForm.Get("authenticity_token"); got != "sign-in-token" {
				t.Fatalf("unexpected authenticity token: %q", got)
			}
			if r.PostForm.Get("user[username]") != "alex" || r.PostForm.Get("user[password]") != "secret" {
				t.Fatalf("unexpected credentials: %v", r.PostForm)
			}
			http.SetCookie(w, &http.Cookie{Name: "_diaspora_session", Value: "abc", Path: "/"})
			w.Header().Set("Location", "/stream")
			w.WriteHeader(http.StatusFound)
		case r.Method == http.MethodGet && r.URL.Path == "/stream":
			if _, err := r.Cookie("_diaspora_session"); err != nil {
				w.WriteHeader(http.StatusFound)
				return
			}
			_, _ = w.Write([]byte(pageWithToken("stream-token")))
		case r.Method == http.MethodPost && r.URL.Path == "/status_messages":
			writeToken = r.Header.Get("X-CSRF-Token")
			_, _ = w.Write([]byte(`{"id":9,"guid":"g9","text":"hello","author":{"name":"Alex","diaspora_id":"alex@pod.example"}}`))
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer ts.Close()

	c := NewClient(ts.URL, ts.Client())
	if err := c.Login(context.Background(), "alex", "secret"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	post, err := c.CreatePost(context.Background(), "hello")
	if err != nil {
		t.Fatalf("CreatePost returned error: %v", err)
	}
	if writeToken != "stream-token" {
		t.Fatalf("expected stream csrf token on writes, got %q", writeToken)
	}
	if post.ID != "9" || !post.CommentsLoaded {
		t.Fatalf("unexpected post: %+v", post)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(pageWithToken("t")))
			return
		}
		// Rails re-renders the form on a failed sign in.
		_, _ = w.Write([]byte(pageWithToken("t")))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, ts.Client())
	err := c.Login(context.Background(), "alex", "wrong")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestNotifications_DecodesEnvelopes(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/notifications.json" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("page") != "2" || r.URL.Query().Get("per_page") != "15" {
			t.Fatalf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
{"also_commented":{"id":31,"target_type":"Post","target_id":400,"unread":true,"created_at":"2026-02-01T10:00:00Z","note_html":"<a href=\"/people/1\">Kim</a> also commented on <a href=\"/posts/400\">a post</a>."}},
{"started_sharing":{"id":"30","target_type":"Person","target_id":7,"unread":false,"created_at":"2026-01-31T10:00:00Z","note_html":"<b>Lee</b> started sharing with you."}}
]`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, ts.Client())
	got, err := c.Notifications(context.Background(), 2, 15)
	if err != nil {
		t.Fatalf("Notifications returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(got))
	}
	first := got[0]
	if first.ID != "31" || first.Kind != "also_commented" || first.TargetID != "400" || !first.Unread {
		t.Fatalf("unexpected first notification: %+v", first)
	}
	if first.Text != "Kim also commented on a post." {
		t.Fatalf("unexpected notification text: %q", first.Text)
	}
	if !first.RefersToPost() {
		t.Fatal("expected first notification to refer to a post")
	}
	if got[1].ID != "30" || got[1].RefersToPost() {
		t.Fatalf("unexpected second notification: %+v", got[1])
	}
}

func TestPost_LoadsComments(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/posts/400.json":
			_, _ = w.Write([]byte(`{"id":400,"guid":"abc","text":"Hello","created_at":"2026-02-01T09:00:00Z","author":{"guid":"p1","name":"Kim","diaspora_id":"kim@pod.example"},"interactions":{"comments_count":2}}`))
		case "/posts/400/comments.json":
			_, _ = w.Write([]byte(`[{"id":1,"text":"first","author":{"name":"Lee"}},{"id":2,"text":"second","author":{"diaspora_id":"max@pod.example"}}]`))
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer ts.Close()

	c := NewClient(ts.URL, ts.Client())
	post, err := c.Post(context.Background(), "400")
	if err != nil {
		t.Fatalf("Post returned error: %v", err)
	}
	if post.ID != "400" || post.Author.Label() != "Kim" || !post.CommentsLoaded {
		t.Fatalf("unexpected post: %+v", post)
	}
	if len(post.Comments) != 2 || post.Comments[1].Author.Label() != "max@pod.example" {
		t.Fatalf("unexpected comments: %+v", post.Comments)
	}
}

func TestPost_NotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, ts.Client())
	_, err := c.Post(context.Background(), "404")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAddAndDeleteComment(t *testing.T) {
	requests := make([]string, 0, 2)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, r.Method+" "+r.URL.Path+" "+string(body))
		if r.Method == http.MethodPost {
			if got := r.Header.Get("Content-Type"); got != "application/json; charset=utf-8" {
				t.Fatalf("unexpected content-type: %s", got)
			}
			_, _ = w.Write([]byte(`{"id":77,"text":"nice","author":{"name":"Alex"}}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, ts.Client())
	comment, err := c.AddComment(context.Background(), "400", "nice")
	if err != nil {
		t.Fatalf("AddComment returned error: %v", err)
	}
	if comment.ID != "77" {
		t.Fatalf("unexpected comment id: %s", comment.ID)
	}
	if err := c.DeleteComment(context.Background(), "400", comment.ID); err != nil {
		t.Fatalf("DeleteComment returned error: %v", err)
	}

	if len(requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(requests))
	}
	if !strings.Contains(requests[0], "POST /posts/400/comments") || !strings.Contains(requests[0], `"text":"nice"`) {
		t.Fatalf("unexpected first request: %s", requests[0])
	}
	if !strings.HasPrefix(requests[1], "DELETE /posts/400/comments/77") {
		t.Fatalf("unexpected second request: %s", requests[1])
	}
}

func TestStreamBefore_SendsMaxTime(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stream.json" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("max_time") != "1769904000" {
			t.Fatalf("unexpected query: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`[{"id":5,"text":"older","interactions":{"comments_count":3}}]`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, ts.Client())
	posts, err := c.StreamBefore(context.Background(), time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("StreamBefore returned error: %v", err)
	}
	if len(posts) != 1 || posts[0].CommentsCount != 3 || posts[0].CommentsLoaded {
		t.Fatalf("unexpected posts: %+v", posts)
	}
}

func TestID_UnmarshalNumbersAndStrings(t *testing.T) {
	var ids []ID
	if err := json.Unmarshal([]byte(`[12, "ab-c", null]`), &ids); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if ids[0] != "12" || ids[1] != "ab-c" || ids[2] != "" {
		t.Fatalf("unexpected ids: %#v", ids)
	}
}

func TestRemoveComment_KeepsOthers(t *testing.T) {
	a, b, c := &Comment{ID: "1"}, &Comment{ID: "2"}, &Comment{ID: "3"}
	post := &Post{Comments: []*Comment{a, b, c}, CommentsCount: 3}

	if !post.RemoveComment("2") {
		t.Fatal("expected comment to be removed")
	}
	if len(post.Comments) != 2 || post.Comments[0] != a || post.Comments[1] != c {
		t.Fatalf("unexpected remaining comments: %+v", post.Comments)
	}
	if post.CommentsCount != 2 {
		t.Fatalf("unexpected count: %d", post.CommentsCount)
	}
	if post.RemoveComment("2") {
		t.Fatal("expected second removal to report false")
	}
}
