package api

import (
	"encoding/base64"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/supla-lite/suplad/pkg/server/state"
)

// iconEntry is one element of the user-icons response. Images are
// base64 encoded; the arrays are omitted unless images were requested.
type iconEntry struct {
	ID         uint32   `json:"id"`
	Images     []string `json:"images,omitempty"`
	ImagesDark []string `json:"imagesDark,omitempty"`
}

// userIcons handles GET /api/{version}/user-icons.
//
// Without an ids parameter it lists every configured icon id, without
// image payloads. With ids=<csv> it returns the matching icons; unknown
// or malformed ids are skipped. include=images attaches the base64
// encoded image bytes.
func userIcons(st *state.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idsParam := r.URL.Query().Get("ids")
		if idsParam == "" {
			entries := make([]iconEntry, 0, len(st.IconIDs()))
			for _, id := range st.IconIDs() {
				entries = append(entries, iconEntry{ID: id})
			}
			writeJSON(w, http.StatusOK, entries)
			return
		}

		include := strings.Split(r.URL.Query().Get("include"), ",")
		withImages := slices.Contains(include, "images")

		entries := make([]iconEntry, 0)
		for _, part := range strings.Split(idsParam, ",") {
			id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
			if err != nil {
				continue
			}
			icon, ok := st.Icon(uint32(id))
			if !ok {
				continue
			}
			entry := iconEntry{ID: icon.ID}
			if withImages {
				entry.Images = encodeImages(icon.Images)
				entry.ImagesDark = encodeImages(icon.ImagesDark)
			}
			entries = append(entries, entry)
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func encodeImages(images [][]byte) []string {
	out := make([]string, len(images))
	for i, img := range images {
		out[i] = base64.StdEncoding.EncodeToString(img)
	}
	return out
}
