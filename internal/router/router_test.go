package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// capturingMailer records the last activation mail per recipient instead of
// talking to an SMTP server.
type capturingMailer struct {
	bodies map[string]string
}

func (m *capturingMailer) Send(to, subject, body string) error {
	m.bodies[to] = body
	return nil
}

// newTestHandler wires the full router against an in-memory sqlite database.
// The sqlite3 bindvar is ? so the composed statements run unchanged.
func newTestHandler(t *testing.T) (http.Handler, *capturingMailer) {
	t.Helper()
	db, err := sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	const schema = `
CREATE TABLE users (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  email TEXT NOT NULL UNIQUE,
  password TEXT NOT NULL,
  active BOOLEAN NOT NULL DEFAULT 0,
  activated_at TIMESTAMP,
  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE tokens (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  token TEXT NOT NULL UNIQUE,
  user_id INTEGER NOT NULL
);
CREATE TABLE guestbook (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL,
  message TEXT NOT NULL,
  private BOOLEAN NOT NULL DEFAULT 0,
  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE upvotes (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  message_id INTEGER NOT NULL,
  user_id INTEGER NOT NULL,
  UNIQUE (message_id, user_id)
);
CREATE VIEW top_messages AS
SELECT g.id AS id, g.message AS message, COUNT(u.id) AS n_upvotes
FROM guestbook g
JOIN upvotes u ON u.message_id = g.id
WHERE g.private = 0
GROUP BY g.id, g.message
ORDER BY n_upvotes DESC;`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	mail := &capturingMailer{bodies: map[string]string{}}
	return RegisterRoutes(zap.NewNop().Sugar(), db, mail, "http://test"), mail
}

type client struct {
	t     *testing.T
	h     http.Handler
	email string
	pass  string
}

func (c *client) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if c.email != "" {
		req.SetBasicAuth(c.email, c.pass)
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	out := map[string]any{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

// registerAndActivate walks a user through the full signup flow and returns
// an authenticated client.
func registerAndActivate(t *testing.T, h http.Handler, mail *capturingMailer, email, pass string) *client {
	t.Helper()
	anon := &client{t: t, h: h}

	rec := anon.do(http.MethodPost, "/register?email="+url.QueryEscape(email)+"&password="+pass, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", email, rec.Code, rec.Body.String())
	}

	body, ok := mail.bodies[email]
	if !ok {
		t.Fatalf("no activation mail for %s", email)
	}
	idx := strings.Index(body, "http://test/activate?token=")
	if idx < 0 {
		t.Fatalf("no activation url in mail body %q", body)
	}
	activateURL := strings.Fields(body[idx:])[0]

	rec = anon.do(http.MethodGet, strings.TrimPrefix(activateURL, "http://test"), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("activate %s: status %d body %s", email, rec.Code, rec.Body.String())
	}

	return &client{t: t, h: h, email: email, pass: pass}
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := (&client{t: t, h: h}).do(http.MethodGet, "/guestbook-api/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health: status %d", rec.Code)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("missing X-Request-Id header")
	}
}

func TestRegister_Validation(t *testing.T) {
	h, _ := newTestHandler(t)
	anon := &client{t: t, h: h}

	rec := anon.do(http.MethodPost, "/register?email=not-an-email&password=secretpw1", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid email: status %d", rec.Code)
	}

	rec = anon.do(http.MethodPost, "/register?email=a%40b.cd&password=short", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("short password: status %d", rec.Code)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	h, mail := newTestHandler(t)
	registerAndActivate(t, h, mail, "dup@example.com", "secretpw1")

	rec := (&client{t: t, h: h}).do(http.MethodPost, "/register?email=dup%40example.com&password=secretpw1", nil)
	if rec.Code != http.StatusNotAcceptable {
		t.Fatalf("duplicate email: status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestActivate_InvalidAndRepeated(t *testing.T) {
	h, mail := newTestHandler(t)
	anon := &client{t: t, h: h}

	rec := anon.do(http.MethodGet, "/activate?token=bogus", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("bogus token: status %d", rec.Code)
	}

	registerAndActivate(t, h, mail, "ann@example.com", "secretpw1")

	// replay the same activation link
	body := mail.bodies["ann@example.com"]
	idx := strings.Index(body, "/activate?token=")
	rec = anon.do(http.MethodGet, strings.Fields(body[idx:])[0], nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("repeated activation: status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestAuth_RequiredAndRejectsInactive(t *testing.T) {
	h, _ := newTestHandler(t)
	anon := &client{t: t, h: h}

	rec := anon.do(http.MethodGet, "/messages", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no credentials: status %d", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Fatal("missing WWW-Authenticate header")
	}

	// registered but not activated
	rec = anon.do(http.MethodPost, "/register?email=pending%40example.com&password=secretpw1", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status %d", rec.Code)
	}
	pending := &client{t: t, h: h, email: "pending@example.com", pass: "secretpw1"}
	if rec = pending.do(http.MethodGet, "/messages", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("inactive account: status %d", rec.Code)
	}
}

func TestMessages_EndToEnd(t *testing.T) {
	h, mail := newTestHandler(t)
	alice := registerAndActivate(t, h, mail, "alice@example.com", "secretpw1")
	bob := registerAndActivate(t, h, mail, "bob@example.com", "secretpw1")

	// alice posts one public and one private message
	rec := alice.do(http.MethodPost, "/messages", url.Values{"message": {"hello world"}})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create public: status %d body %s", rec.Code, rec.Body.String())
	}
	publicID := int64(decode(t, rec)["message_id"].(float64))

	rec = alice.do(http.MethodPost, "/messages", url.Values{"message": {"my diary"}, "private": {"true"}})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create private: status %d", rec.Code)
	}
	privateID := int64(decode(t, rec)["message_id"].(float64))

	// empty body is rejected
	if rec = alice.do(http.MethodPost, "/messages", url.Values{}); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty body: status %d", rec.Code)
	}

	// bob sees the public message but not the private one
	rec = bob.do(http.MethodGet, "/messages?num=10", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status %d", rec.Code)
	}
	var listed []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	bodies := map[string]bool{}
	for _, m := range listed {
		bodies[m["message"].(string)] = true
	}
	if !bodies["hello world"] || bodies["my diary"] {
		t.Fatalf("unexpected visibility in list: %v", bodies)
	}

	// search is visibility filtered too
	rec = bob.do(http.MethodGet, "/messages/search?search_pattern=diary", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("search: status %d", rec.Code)
	}
	listed = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode search: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("private message leaked through search: %v", listed)
	}
	if rec = bob.do(http.MethodGet, "/messages/search", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("search without pattern: status %d", rec.Code)
	}

	// direct reads
	if rec = alice.do(http.MethodGet, itoaPath("/messages/", privateID), nil); rec.Code != http.StatusOK {
		t.Fatalf("owner reads private: status %d", rec.Code)
	}
	if rec = bob.do(http.MethodGet, itoaPath("/messages/", privateID), nil); rec.Code != http.StatusForbidden {
		t.Fatalf("stranger reads private: status %d", rec.Code)
	}
	if rec = bob.do(http.MethodGet, "/messages/99999", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing message: status %d", rec.Code)
	}
	if rec = bob.do(http.MethodGet, "/messages/abc", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id: status %d", rec.Code)
	}

	// updates are owner-only
	if rec = bob.do(http.MethodPatch, itoaPath("/messages/", publicID), url.Values{"message": {"hacked"}}); rec.Code != http.StatusForbidden {
		t.Fatalf("stranger update: status %d", rec.Code)
	}
	if rec = alice.do(http.MethodPatch, itoaPath("/messages/", publicID), url.Values{"message": {"hello again"}}); rec.Code != http.StatusOK {
		t.Fatalf("owner update: status %d body %s", rec.Code, rec.Body.String())
	}

	// upvotes: not your own, not private, not twice
	if rec = alice.do(http.MethodPost, itoaPath("/messages/", publicID)+"/upvote", nil); rec.Code != http.StatusForbidden {
		t.Fatalf("upvote own: status %d", rec.Code)
	}
	if rec = bob.do(http.MethodPost, itoaPath("/messages/", privateID)+"/upvote", nil); rec.Code != http.StatusForbidden {
		t.Fatalf("upvote private: status %d", rec.Code)
	}
	if rec = bob.do(http.MethodPost, itoaPath("/messages/", publicID)+"/upvote", nil); rec.Code != http.StatusOK {
		t.Fatalf("upvote: status %d body %s", rec.Code, rec.Body.String())
	}
	if rec = bob.do(http.MethodPost, itoaPath("/messages/", publicID)+"/upvote", nil); rec.Code != http.StatusForbidden {
		t.Fatalf("duplicate upvote: status %d", rec.Code)
	}

	// leaderboard is open and reflects the vote
	rec = (&client{t: t, h: h}).do(http.MethodGet, "/messages/most_upvoted", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("most_upvoted: status %d", rec.Code)
	}
	var top []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &top); err != nil {
		t.Fatalf("decode most_upvoted: %v", err)
	}
	if len(top) != 1 || top[0]["message"] != "hello again" || top[0]["n_upvotes"].(float64) != 1 {
		t.Fatalf("unexpected leaderboard: %v", top)
	}

	// deletes are owner-scoped and do not confirm existence
	if rec = bob.do(http.MethodDelete, itoaPath("/messages/", publicID), nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("stranger delete: status %d", rec.Code)
	}
	if rec = alice.do(http.MethodDelete, itoaPath("/messages/", publicID), nil); rec.Code != http.StatusOK {
		t.Fatalf("owner delete: status %d", rec.Code)
	}
	if rec = alice.do(http.MethodDelete, itoaPath("/messages/", publicID), nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("repeat delete: status %d", rec.Code)
	}
}

func itoaPath(prefix string, id int64) string {
	return prefix + strconv.FormatInt(id, 10)
}
