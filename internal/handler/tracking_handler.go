// internal/handler/tracking_handler.go
package handler

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/shulgold/newsletter-engine/internal/repository"
)

// TrackingHandler serves the public open/click endpoints referenced from
// instrumented newsletter bodies. Both are safe to hit any number of times.
type TrackingHandler struct {
	TrackingRepo repository.TrackingRepositoryInterface
}

// 1x1 transparent GIF
var pixelGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00,
	0x80, 0x00, 0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0x21,
	0xf9, 0x04, 0x01, 0x00, 0x00, 0x00, 0x00, 0x2c, 0x00, 0x00,
	0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x44,
	0x01, 0x00, 0x3b,
}

// Open handles GET /track/open?sid=&sub= — always answers with the pixel,
// even when the parameters are garbage, so broken clients never see errors.
func (h *TrackingHandler) Open(w http.ResponseWriter, r *http.Request) {
	sendID, err1 := strconv.Atoi(r.URL.Query().Get("sid"))
	subscriberID, err2 := strconv.Atoi(r.URL.Query().Get("sub"))

	if err1 == nil && err2 == nil {
		if err := h.TrackingRepo.RecordOpen(sendID, subscriberID); err != nil {
			log.Println("⚠️ failed to record open:", err)
		}
	}

	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(pixelGIF)
}

// Click handles GET /track/click?sid=&sub=&url= — records the click and
// forwards the browser to the original destination.
func (h *TrackingHandler) Click(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		http.Error(w, "missing url", http.StatusBadRequest)
		return
	}
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		http.Error(w, "invalid url", http.StatusBadRequest)
		return
	}

	sendID, err1 := strconv.Atoi(r.URL.Query().Get("sid"))
	subscriberID, err2 := strconv.Atoi(r.URL.Query().Get("sub"))
	if err1 == nil && err2 == nil {
		if err := h.TrackingRepo.RecordClick(sendID, subscriberID, target); err != nil {
			log.Println("⚠️ failed to record click:", err)
		}
	}

	http.Redirect(w, r, target, http.StatusFound)
}
