package handler

import (
	"net/http"

	qrcode "github.com/skip2/go-qrcode"
)

const qrImageSize = 256

// QRCode serves a PNG QR code encoding the poll's public URL.
func (h *PollHandler) QRCode(w http.ResponseWriter, r *http.Request) {
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

	png, err := qrcode.Encode(h.pollURL(id), qrcode.Medium, qrImageSize)
	if err != nil {
		h.logger.Error("encode qr", "poll_id", id, "error", err)
		http.Error(w, "failed to generate QR code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}
