package server

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/KILATIV100/perkup-ecosystem/internal/geo"
	"github.com/KILATIV100/perkup-ecosystem/internal/loyalty"
)

// LocationItem is a location annotated with the caller's distance when
// coordinates were supplied.
type LocationItem struct {
	loyalty.Location
	DistanceMeters *int `json:"distanceMeters,omitempty"`
}

func handleListLocations(store *loyalty.SQLiteStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		locations, err := store.ListLocations(r.Context(), true)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		items := make([]LocationItem, 0, len(locations))
		for _, loc := range locations {
			items = append(items, LocationItem{Location: loc})
		}

		q := r.URL.Query()
		lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
		lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
		if errLat == nil && errLon == nil {
			for i := range items {
				d := geo.Distance(lat, lon, items[i].Latitude, items[i].Longitude)
				items[i].DistanceMeters = &d
			}
			sort.Slice(items, func(i, j int) bool {
				return *items[i].DistanceMeters < *items[j].DistanceMeters
			})
		}

		writeJSON(w, http.StatusOK, map[string]any{"locations": items})
	}
}
