package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/vraj-maheshwari/pollapp/internal/database"
	"github.com/vraj-maheshwari/pollapp/internal/model"
	"github.com/vraj-maheshwari/pollapp/internal/store"
	"github.com/vraj-maheshwari/pollapp/internal/websocket"
)

type recorderHub struct {
	mu     sync.Mutex
	events []websocket.VoteEvent
}

func (h *recorderHub) Broadcast(ev websocket.VoteEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
}

func (h *recorderHub) Events() []websocket.VoteEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]websocket.VoteEvent(nil), h.events...)
}

type testApp struct {
	mux   *http.ServeMux
	hub   *recorderHub
	polls *store.PollStore
	votes *store.VoteStore
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	polls := store.NewPollStore(db)
	votes := store.NewVoteStore(db)
	insights := store.NewInsightStore(db)
	hub := &recorderHub{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := NewPollHandler(polls, votes, insights, hub, ParseTemplates(), "http://example.com", logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", h.CreatePage)
	mux.HandleFunc("POST /{$}", h.Create)
	mux.HandleFunc("GET /poll/{id}", h.View)
	mux.HandleFunc("POST /poll/{id}", h.Vote)
	mux.HandleFunc("GET /results/{id}", h.ResultsPage)
	mux.HandleFunc("GET /api/results/{id}", h.APIResults)
	mux.HandleFunc("GET /share/{id}", h.SharePage)
	mux.HandleFunc("GET /creator/{id}/{secret}", h.Dashboard)
	mux.HandleFunc("GET /qr/{id}", h.QRCode)

	return &testApp{mux: mux, hub: hub, polls: polls, votes: votes}
}

func (a *testApp) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	a.mux.ServeHTTP(w, req)
	return w
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// createPoll drives the creation form and returns the new poll with its secret.
func (a *testApp) createPoll(t *testing.T, question string) (*model.Poll, string) {
	t.Helper()
	w := a.do(t, postForm("/", url.Values{"question": {question}}))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("create status = %d, body %q", w.Code, w.Body.String())
	}

	loc, err := url.Parse(w.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse redirect: %v", err)
	}
	var id int64
	if _, err := fmt.Sscanf(loc.Path, "/share/%d", &id); err != nil {
		t.Fatalf("unexpected redirect %q: %v", loc.Path, err)
	}

	poll, err := a.polls.GetByID(id)
	if err != nil || poll == nil {
		t.Fatalf("created poll not stored: %v", err)
	}
	return poll, loc.Query().Get("secret")
}

func (a *testApp) vote(t *testing.T, pollID, optionID int64, cookie string) *httptest.ResponseRecorder {
	t.Helper()
	req := postForm(fmt.Sprintf("/poll/%d", pollID), url.Values{"option": {fmt.Sprint(optionID)}})
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: voteCookieName, Value: cookie})
	}
	return a.do(t, req)
}

func TestCreatePage(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Errorf("GET / status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<form") {
		t.Error("create page should contain the form")
	}

	w = app.do(t, httptest.NewRequest(http.MethodGet, "/no-such-page", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown path status = %d, want 404", w.Code)
	}
}

func TestCreatePollAutoSplit(t *testing.T) {
	app := newTestApp(t)

	poll, secret := app.createPoll(t, "Tea|Coffee")
	if poll.Question != "Tea|Coffee" {
		t.Errorf("question = %q", poll.Question)
	}
	if secret == "" {
		t.Error("redirect should carry the creator secret")
	}

	options, _ := app.polls.Options(poll.ID)
	if len(options) != 2 || options[0].Text != "Tea" || options[1].Text != "Coffee" {
		t.Errorf("options = %v", options)
	}
}

func TestCreatePollExplicitOptions(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, postForm("/", url.Values{
		"question":    {"Best editor?"},
		"num_options": {"3"},
		"option1":     {"vim"},
		"option2":     {"emacs"},
		"option3":     {"ed"},
	}))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("create status = %d, body %q", w.Code, w.Body.String())
	}
}

func TestCreatePollHideResults(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, postForm("/", url.Values{
		"question":     {"A or B"},
		"hide_results": {"on"},
	}))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("create status = %d", w.Code)
	}
	loc, _ := url.Parse(w.Header().Get("Location"))
	var id int64
	fmt.Sscanf(loc.Path, "/share/%d", &id)
	poll, _ := app.polls.GetByID(id)
	if !poll.HideResults {
		t.Error("expected hide_results to be stored")
	}
}

func TestCreatePollValidation(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name    string
		form    url.Values
		wantMsg string
	}{
		{
			"no options",
			url.Values{"question": {"Favorite color?"}},
			"Provide 2 to 4 options.",
		},
		{
			"one option",
			url.Values{"question": {"Favorite color?"}, "option1": {"blue"}},
			"Provide 2 to 4 options.",
		},
		{
			// the option check runs first even when the question is also bad
			"empty question",
			url.Values{"question": {""}},
			"Provide 2 to 4 options.",
		},
		{
			"empty question with options",
			url.Values{"question": {""}, "option1": {"a"}, "option2": {"b"}},
			"Question is required (1-120 chars).",
		},
		{
			"over-length question",
			url.Values{
				"question": {strings.Repeat("q", 121)},
				"option1":  {"a"}, "option2": {"b"},
			},
			"Question is required (1-120 chars).",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.do(t, postForm("/", tt.form))
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			if !strings.Contains(w.Body.String(), tt.wantMsg) {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.wantMsg)
			}
		})
	}
}

func TestVoteSetsTokenCookieAndNotifies(t *testing.T) {
	app := newTestApp(t)
	poll, _ := app.createPoll(t, "Tea|Coffee")
	options, _ := app.polls.Options(poll.ID)

	w := app.vote(t, poll.ID, options[0].ID, "")
	if w.Code != http.StatusSeeOther {
		t.Fatalf("vote status = %d, body %q", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Location"); got != fmt.Sprintf("/results/%d", poll.ID) {
		t.Errorf("redirect = %q", got)
	}

	res := w.Result()
	var cookie *http.Cookie
	for _, c := range res.Cookies() {
		if c.Name == voteCookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("expected the voter token cookie")
	}
	if cookie.MaxAge != voteCookieMaxAge {
		t.Errorf("cookie max-age = %d, want %d", cookie.MaxAge, voteCookieMaxAge)
	}
	if !cookie.HttpOnly {
		t.Error("cookie should be http-only")
	}
	if cookie.SameSite != http.SameSiteStrictMode {
		t.Errorf("cookie same-site = %v, want strict", cookie.SameSite)
	}

	events := app.hub.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 broadcast, got %d", len(events))
	}
	if events[0].Type != "vote_cast" || events[0].PollID != poll.ID || events[0].TotalVotes != 1 {
		t.Errorf("event = %+v", events[0])
	}
}

func TestVoteRepeatRedirectsWithoutCounting(t *testing.T) {
	app := newTestApp(t)
	poll, _ := app.createPoll(t, "Tea|Coffee")
	options, _ := app.polls.Options(poll.ID)

	w := app.vote(t, poll.ID, options[0].ID, "")
	res := w.Result()
	var token string
	for _, c := range res.Cookies() {
		if c.Name == voteCookieName {
			token = c.Value
		}
	}
	if token == "" {
		t.Fatal("first vote should set the token")
	}

	// same voter, second attempt: a soft redirect, no new count or cookie
	w = app.vote(t, poll.ID, options[1].ID, token)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("repeat vote status = %d", w.Code)
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == voteCookieName {
			t.Error("repeat vote should not reissue the cookie")
		}
	}
	if n, _ := app.votes.CountForPoll(poll.ID); n != 1 {
		t.Errorf("vote count = %d, want 1", n)
	}
	if events := app.hub.Events(); len(events) != 1 {
		t.Errorf("broadcasts = %d, want 1", len(events))
	}
}

func TestVoteErrors(t *testing.T) {
	app := newTestApp(t)
	poll, _ := app.createPoll(t, "Tea|Coffee")
	other, _ := app.createPoll(t, "Cats|Dogs")
	otherOpts, _ := app.polls.Options(other.ID)

	// no option field
	w := app.do(t, postForm(fmt.Sprintf("/poll/%d", poll.ID), url.Values{}))
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "No option selected.") {
		t.Errorf("missing option: status = %d, body %q", w.Code, w.Body.String())
	}

	// non-numeric option
	w = app.do(t, postForm(fmt.Sprintf("/poll/%d", poll.ID), url.Values{"option": {"tea"}}))
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "Invalid option.") {
		t.Errorf("bad option: status = %d, body %q", w.Code, w.Body.String())
	}

	// option from a different poll
	w = app.vote(t, poll.ID, otherOpts[0].ID, "")
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "Invalid option.") {
		t.Errorf("foreign option: status = %d, body %q", w.Code, w.Body.String())
	}

	// unknown poll
	w = app.vote(t, 999, otherOpts[0].ID, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown poll status = %d, want 404", w.Code)
	}

	if events := app.hub.Events(); len(events) != 0 {
		t.Errorf("failed votes must not broadcast, got %d events", len(events))
	}
}

func TestViewPoll(t *testing.T) {
	app := newTestApp(t)
	poll, _ := app.createPoll(t, "Tea|Coffee")

	w := app.do(t, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/poll/%d", poll.ID), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("view status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Tea") || !strings.Contains(body, "Coffee") {
		t.Error("voting page should list the options")
	}

	w = app.do(t, httptest.NewRequest(http.MethodGet, "/poll/999", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown poll status = %d, want 404", w.Code)
	}

	w = app.do(t, httptest.NewRequest(http.MethodGet, "/poll/abc", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", w.Code)
	}
}

func TestResultsLifecycle(t *testing.T) {
	app := newTestApp(t)
	poll, _ := app.createPoll(t, "Tea|Coffee")
	options, _ := app.polls.Options(poll.ID)

	// spec walk-through: 14 tea, 6 coffee
	for i := 0; i < 14; i++ {
		if w := app.vote(t, poll.ID, options[0].ID, ""); w.Code != http.StatusSeeOther {
			t.Fatalf("tea vote %d status = %d", i, w.Code)
		}
	}
	for i := 0; i < 6; i++ {
		if w := app.vote(t, poll.ID, options[1].ID, ""); w.Code != http.StatusSeeOther {
			t.Fatalf("coffee vote %d status = %d", i, w.Code)
		}
	}

	w := app.do(t, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/results/%d", poll.ID), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("api status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %q", ct)
	}
	var got apiResults
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode api response: %v", err)
	}
	want := apiResults{
		Results: []model.OptionResult{
			{Text: "Tea", Count: 14, Percentage: 70.0},
			{Text: "Coffee", Count: 6, Percentage: 30.0},
		},
		TotalVotes: 20,
	}
	if got.TotalVotes != want.TotalVotes || len(got.Results) != 2 {
		t.Fatalf("api results = %+v", got)
	}
	for i := range want.Results {
		if got.Results[i] != want.Results[i] {
			t.Errorf("result %d = %+v, want %+v", i, got.Results[i], want.Results[i])
		}
	}

	// twenty votes crossed the threshold, so the results page carries the insight
	w = app.do(t, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/results/%d", poll.ID), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("results page status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Clear winner") || !strings.Contains(body, "70.0%") {
		t.Errorf("results page should show the generated insight, got %q", body)
	}
}

func TestAPIResultsEmptyPoll(t *testing.T) {
	app := newTestApp(t)
	poll, _ := app.createPoll(t, "Tea|Coffee")

	w := app.do(t, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/results/%d", poll.ID), nil))
	var got apiResults
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.TotalVotes != 0 {
		t.Errorf("total = %d", got.TotalVotes)
	}
	if len(got.Results) != 2 {
		t.Fatalf("expected 2 zero rows, got %+v", got.Results)
	}
	for _, r := range got.Results {
		if r.Count != 0 || r.Percentage != 0.0 {
			t.Errorf("zero row = %+v", r)
		}
	}
}

func TestAPIResultsNotFound(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, httptest.NewRequest(http.MethodGet, "/api/results/999", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %q", ct)
	}
}

func TestSharePageCreatorReveal(t *testing.T) {
	app := newTestApp(t)
	poll, secret := app.createPoll(t, "Tea|Coffee")

	w := app.do(t, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/share/%d?secret=%s", poll.ID, secret), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("share status = %d", w.Code)
	}
	creatorPath := fmt.Sprintf("/creator/%d/%s", poll.ID, secret)
	if !strings.Contains(w.Body.String(), creatorPath) {
		t.Error("valid secret should reveal the creator link")
	}

	// wrong secret: page loads, link withheld
	w = app.do(t, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/share/%d?secret=wrong", poll.ID), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("share status = %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "/creator/") {
		t.Error("wrong secret must not reveal the creator link")
	}
}

func TestDashboardAccess(t *testing.T) {
	app := newTestApp(t)
	poll, secret := app.createPoll(t, "Tea|Coffee")

	w := app.do(t, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/creator/%d/%s", poll.ID, secret), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Tea|Coffee") {
		t.Error("dashboard should show the question")
	}

	w = app.do(t, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/creator/%d/not-the-secret", poll.ID), nil))
	if w.Code != http.StatusForbidden {
		t.Errorf("wrong secret status = %d, want 403", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Access denied") {
		t.Errorf("body = %q", w.Body.String())
	}

	w = app.do(t, httptest.NewRequest(http.MethodGet, "/creator/999/whatever", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown poll status = %d, want 404", w.Code)
	}
}

func TestQRCodePNG(t *testing.T) {
	app := newTestApp(t)
	poll, _ := app.createPoll(t, "Tea|Coffee")

	w := app.do(t, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/qr/%d", poll.ID), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("qr status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content-type = %q", ct)
	}
	if !strings.HasPrefix(w.Body.String(), "\x89PNG") {
		t.Error("body should be a PNG image")
	}

	w = app.do(t, httptest.NewRequest(http.MethodGet, "/qr/999", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown poll status = %d, want 404", w.Code)
	}
}

func TestOGDescription(t *testing.T) {
	opts := func(texts ...string) []model.Option {
		out := make([]model.Option, len(texts))
		for i, s := range texts {
			out[i] = model.Option{Text: s}
		}
		return out
	}

	tests := []struct {
		options []model.Option
		want    string
	}{
		{opts(), "Cast your vote"},
		{opts("Tea", "Coffee"), "Vote on: Tea vs Coffee"},
		{opts("a", "b", "c"), "Vote on: a vs b and 1 more"},
		{opts("a", "b", "c", "d"), "Vote on: a vs b and 2 more"},
	}
	for _, tt := range tests {
		if got := ogDescription(tt.options); got != tt.want {
			t.Errorf("ogDescription(%d opts) = %q, want %q", len(tt.options), got, tt.want)
		}
	}
}
