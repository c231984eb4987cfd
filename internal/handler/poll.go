package handler

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vraj-maheshwari/pollapp/internal/identity"
	"github.com/vraj-maheshwari/pollapp/internal/middleware"
	"github.com/vraj-maheshwari/pollapp/internal/model"
	"github.com/vraj-maheshwari/pollapp/internal/question"
	"github.com/vraj-maheshwari/pollapp/internal/store"
	"github.com/vraj-maheshwari/pollapp/internal/websocket"
)

const voteCookieName = "vote_token"

// voteCookieMaxAge matches the poll lifetime: one day.
const voteCookieMaxAge = 86400

type PollHandler struct {
	polls     *store.PollStore
	votes     *store.VoteStore
	insights  *store.InsightStore
	hub       Notifier
	templates *template.Template
	baseURL   string
	logger    *slog.Logger
}

func NewPollHandler(polls *store.PollStore, votes *store.VoteStore, insights *store.InsightStore, hub Notifier, templates *template.Template, baseURL string, logger *slog.Logger) *PollHandler {
	return &PollHandler{
		polls:     polls,
		votes:     votes,
		insights:  insights,
		hub:       hub,
		templates: templates,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger,
	}
}

func (h *PollHandler) notify(ev websocket.VoteEvent) {
	if h.hub != nil {
		h.hub.Broadcast(ev)
	}
}

func (h *PollHandler) pollURL(id int64) string {
	return fmt.Sprintf("%s/poll/%d", h.baseURL, id)
}

// CreatePage serves the poll creation form.
func (h *PollHandler) CreatePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	render(w, h.templates, "create.html", map[string]any{
		"MaxQuestionLength": question.MaxLength,
	})
}

// Create handles the poll creation form: either the question auto-splits into
// options, or explicit option fields are used. On success the creator is
// redirected to the share page carrying the one-time secret.
func (h *PollHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	q := strings.TrimSpace(r.FormValue("question"))
	hideResults := r.FormValue("hide_results") != ""

	options := question.AutoSplit(q)
	if options == nil {
		n := question.ClampCount(r.FormValue("num_options"))
		values := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			values = append(values, r.FormValue("option"+strconv.Itoa(i)))
		}
		options = question.CollectOptions(values)
	}

	if !question.ValidCount(options) {
		http.Error(w, "Provide 2 to 4 options.", http.StatusBadRequest)
		return
	}
	if !question.ValidText(q) {
		http.Error(w, "Question is required (1-120 chars).", http.StatusBadRequest)
		return
	}

	poll, secret, err := h.polls.Create(q, options, hideResults)
	if err != nil {
		h.logger.Error("create poll", "error", err)
		http.Error(w, "failed to create poll", http.StatusInternalServerError)
		return
	}

	h.logger.Info("poll created", "poll_id", poll.ID, "options", len(options))
	http.Redirect(w, r, fmt.Sprintf("/share/%d?secret=%s", poll.ID, secret), http.StatusSeeOther)
}

// View serves the voting page. Expired polls redirect to read-only results.
func (h *PollHandler) View(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	poll, err := h.polls.GetByID(id)
	if err != nil {
		http.Error(w, "failed to load poll", http.StatusInternalServerError)
		return
	}
	if poll == nil {
		http.Error(w, "Poll not found", http.StatusNotFound)
		return
	}
	if poll.Expired(time.Now()) {
		http.Redirect(w, r, fmt.Sprintf("/results/%d", id), http.StatusSeeOther)
		return
	}

	hasVoted, userChoice, err := h.votes.HasVoted(id, cookieToken(r))
	if err != nil {
		http.Error(w, "failed to load poll", http.StatusInternalServerError)
		return
	}

	options, err := h.polls.Options(id)
	if err != nil {
		http.Error(w, "failed to load poll", http.StatusInternalServerError)
		return
	}

	var breakdown []model.OptionResult
	total := 0
	if !poll.HideResults {
		breakdown, total, err = h.votes.Results(id)
		if err != nil {
			http.Error(w, "failed to load results", http.StatusInternalServerError)
			return
		}
	}

	render(w, h.templates, "poll.html", map[string]any{
		"Poll":          poll,
		"Options":       options,
		"HasVoted":      hasVoted,
		"UserChoice":    userChoice,
		"Results":       breakdown,
		"TotalVotes":    total,
		"OGDescription": ogDescription(options),
	})
}

// Vote records one vote for the request's voter identity, issues the voter
// token cookie on a first vote, and fires the change notification after the
// vote is durable. Re-votes and expired polls degrade to the results view.
func (h *PollHandler) Vote(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	optStr := r.FormValue("option")
	if optStr == "" {
		http.Error(w, "No option selected.", http.StatusBadRequest)
		return
	}
	optionID, err := strconv.ParseInt(optStr, 10, 64)
	if err != nil {
		http.Error(w, "Invalid option.", http.StatusBadRequest)
		return
	}

	ident := identity.Derive(cookieToken(r), r.UserAgent(), middleware.RealIP(r))

	total, err := h.votes.Cast(id, optionID, ident)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrPollNotFound):
		http.Error(w, "Poll not found", http.StatusNotFound)
		return
	case errors.Is(err, store.ErrPollExpired), errors.Is(err, store.ErrAlreadyVoted):
		// Soft outcomes: the voter just sees the current results.
		http.Redirect(w, r, fmt.Sprintf("/results/%d", id), http.StatusSeeOther)
		return
	case errors.Is(err, store.ErrInvalidOption):
		http.Error(w, "Invalid option.", http.StatusBadRequest)
		return
	case errors.Is(err, store.ErrMissingOption):
		http.Error(w, "No option selected.", http.StatusBadRequest)
		return
	default:
		h.logger.Error("cast vote", "poll_id", id, "error", err)
		http.Error(w, "failed to record vote", http.StatusInternalServerError)
		return
	}

	if !ident.Present {
		http.SetCookie(w, &http.Cookie{
			Name:     voteCookieName,
			Value:    ident.Token,
			Path:     "/",
			MaxAge:   voteCookieMaxAge,
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})
	}

	h.logger.Info("vote cast", "poll_id", id, "total", total)
	h.notify(websocket.NewVoteEvent(id, total))

	http.Redirect(w, r, fmt.Sprintf("/results/%d", id), http.StatusSeeOther)
}

func cookieToken(r *http.Request) string {
	c, err := r.Cookie(voteCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// ogDescription builds the Open Graph blurb shown when a poll link is shared.
func ogDescription(options []model.Option) string {
	if len(options) == 0 {
		return "Cast your vote"
	}
	texts := make([]string, 0, 2)
	for i, o := range options {
		if i >= 2 {
			break
		}
		texts = append(texts, o.Text)
	}
	desc := "Vote on: " + strings.Join(texts, " vs ")
	if extra := len(options) - 2; extra > 0 {
		desc += fmt.Sprintf(" and %d more", extra)
	}
	return desc
}
