package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"tripshare/internal/feed"
	"tripshare/internal/httputil"
	"tripshare/internal/logger"
	"tripshare/internal/model"
	"tripshare/internal/service"
)

// DefaultRadiusKm applies when lat/lng are given without radius_km.
const DefaultRadiusKm = 25.0

type FeedHandler struct {
	feedService *service.FeedService
	log         zerolog.Logger
}

func NewFeedHandler(feedService *service.FeedService) *FeedHandler {
	return &FeedHandler{
		feedService: feedService,
		log:         logger.For("FeedHandler"),
	}
}

// Search handles GET /experiences
// Returns every experience matching the filters, newest first.
//
// Query params:
//   - q: optional, case-insensitive search over place, description, location and tips
//   - type: optional, a category or "all" (default)
//   - lat, lng: optional, restrict to experiences near this point
//   - radius_km: optional, default 25
func (h *FeedHandler) Search(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	filter, err := feed.ParseFilter(params.Get("type"))
	if err != nil {
		writeServiceError(w, h.log, "Search", err)
		return
	}

	q := model.FeedQuery{
		Term: params.Get("q"),
		Type: filter,
	}

	latStr, lngStr := strings.TrimSpace(params.Get("lat")), strings.TrimSpace(params.Get("lng"))
	if latStr != "" || lngStr != "" {
		lat, errLat := strconv.ParseFloat(latStr, 64)
		lng, errLng := strconv.ParseFloat(lngStr, 64)
		near := model.Coordinates{Lat: lat, Lng: lng}
		if errLat != nil || errLng != nil || !near.Valid() {
			httputil.WriteBadRequest(w, "lat and lng must both be valid coordinates")
			return
		}
		q.Near = &near
		q.RadiusKm = DefaultRadiusKm

		if rs := params.Get("radius_km"); rs != "" {
			radius, err := strconv.ParseFloat(rs, 64)
			if err != nil || radius <= 0 {
				httputil.WriteBadRequest(w, "Invalid radius_km parameter")
				return
			}
			q.RadiusKm = radius
		}
	}

	resp, err := h.feedService.Search(r.Context(), q)
	if err != nil {
		writeServiceError(w, h.log, "Search", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}
