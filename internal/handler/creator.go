package handler

import (
	"fmt"
	"net/http"
	"time"
)

// SharePage serves the share links for a poll. The creator dashboard link is
// revealed only when the presented secret matches the stored one.
func (h *PollHandler) SharePage(w http.ResponseWriter, r *http.Request) {
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

	secret := r.URL.Query().Get("secret")
	isCreator, err := h.polls.VerifySecret(id, secret)
	if err != nil {
		http.Error(w, "failed to load poll", http.StatusInternalServerError)
		return
	}

	var creatorLink string
	if isCreator {
		creatorLink = fmt.Sprintf("%s/creator/%d/%s", h.baseURL, id, secret)
	}

	render(w, h.templates, "share.html", map[string]any{
		"Poll":        poll,
		"Link":        h.pollURL(id),
		"IsCreator":   isCreator,
		"CreatorLink": creatorLink,
	})
}

// Dashboard serves the private creator view: aggregated results, the stored
// insight, and a 7-day vote timeline. A secret mismatch is a hard 403.
func (h *PollHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
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

	ok, err := h.polls.VerifySecret(id, r.PathValue("secret"))
	if err != nil {
		http.Error(w, "failed to load poll", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "Access denied", http.StatusForbidden)
		return
	}

	breakdown, total, err := h.votes.Results(id)
	if err != nil {
		http.Error(w, "failed to load results", http.StatusInternalServerError)
		return
	}

	timeline, err := h.votes.Timeline(id)
	if err != nil {
		http.Error(w, "failed to load timeline", http.StatusInternalServerError)
		return
	}

	var insightText string
	if in, err := h.insights.Latest(id); err != nil {
		h.logger.Error("load insight", "poll_id", id, "error", err)
	} else if in != nil {
		insightText = in.Text
	}

	render(w, h.templates, "creator.html", map[string]any{
		"Poll":       poll,
		"Results":    breakdown,
		"TotalVotes": total,
		"Insight":    insightText,
		"Timeline":   timeline,
		"PollLink":   h.pollURL(id),
		"IsExpired":  poll.Expired(time.Now()),
	})
}
