package handler

import (
	"net/http"
	"time"

	"github.com/vraj-maheshwari/pollapp/internal/model"
)

type apiResults struct {
	Results    []model.OptionResult `json:"results"`
	TotalVotes int                  `json:"total_votes"`
}

// ResultsPage serves the aggregated results view with the stored insight, the
// voter's own choice, and an expired banner when the poll has closed.
func (h *PollHandler) ResultsPage(w http.ResponseWriter, r *http.Request) {
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

	breakdown, total, err := h.votes.Results(id)
	if err != nil {
		http.Error(w, "failed to load results", http.StatusInternalServerError)
		return
	}

	hasVoted, userChoice, err := h.votes.HasVoted(id, cookieToken(r))
	if err != nil {
		http.Error(w, "failed to load results", http.StatusInternalServerError)
		return
	}

	var insightText string
	if in, err := h.insights.Latest(id); err != nil {
		h.logger.Error("load insight", "poll_id", id, "error", err)
	} else if in != nil {
		insightText = in.Text
	}

	render(w, h.templates, "results.html", map[string]any{
		"Poll":       poll,
		"Results":    breakdown,
		"TotalVotes": total,
		"HasVoted":   hasVoted,
		"UserChoice": userChoice,
		"IsExpired":  poll.Expired(time.Now()),
		"Insight":    insightText,
	})
}

// APIResults serves the JSON breakdown consumed by the live results script.
func (h *PollHandler) APIResults(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	poll, err := h.polls.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load poll"})
		return
	}
	if poll == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "poll not found"})
		return
	}

	breakdown, total, err := h.votes.Results(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load results"})
		return
	}
	if breakdown == nil {
		breakdown = []model.OptionResult{}
	}

	writeJSON(w, http.StatusOK, apiResults{Results: breakdown, TotalVotes: total})
}
