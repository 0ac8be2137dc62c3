package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/built-history/internal/urban"
)

type aggregateResponse struct {
	SnapshotID  string   `json:"snapshot_id"`
	Labels      []string `json:"labels"`
	Colors      []string `json:"colors"`
	NoDataColor string   `json:"no_data_color"`
	urban.Result
}

type buildingResponse struct {
	SnapshotID string                `json:"snapshot_id"`
	Building   urban.Building        `json:"building"`
	Classes    urban.BuildingClasses `json:"classes"`
	Labels     map[string]string     `json:"labels"`
}

type eraPreset struct {
	Bucket int    `json:"bucket"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Label  string `json:"label"`
	Color  string `json:"color"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"snapshot_id": s.snap.ID.String(),
		"source":      s.snap.Source,
		"buildings":   len(s.snap.Buildings),
		"blocks":      len(s.snap.Blocks),
	})
}

func (s *Server) aggregate(w http.ResponseWriter, r *http.Request) {
	q, err := ParseQuery(r.URL.Query(), s.defaults)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := newResultKey(s.snap, q)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Cache", "hit")
			_, _ = w.Write(cached)
			return
		}
	}

	res := urban.Aggregate(q.Input(s.snap.Buildings, s.snap.Blocks))
	entries := s.legend.Entries(q.Taxonomy)
	colors := make([]string, len(entries))
	for i, e := range entries {
		colors[i] = e.Color
	}

	body, err := json.Marshal(aggregateResponse{
		SnapshotID:  s.snap.ID.String(),
		Labels:      s.legend.Labels(q.Taxonomy),
		Colors:      colors,
		NoDataColor: s.legend.NoData,
		Result:      res,
	})
	if err != nil {
		zap.L().Error("api: encode aggregate", zap.String("query", q.Key()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "encode failed")
		return
	}

	if s.cache != nil {
		s.cache.Put(key, body)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "miss")
	_, _ = w.Write(body)
}

func (s *Server) building(w http.ResponseWriter, r *http.Request) {
	fid, err := strconv.Atoi(chi.URLParam(r, "fid"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid fid")
		return
	}

	b, ok := s.snap.Building(fid)
	if !ok {
		writeError(w, http.StatusNotFound, "building not found")
		return
	}

	classes := urban.ClassifyAll(b)
	writeJSON(w, http.StatusOK, buildingResponse{
		SnapshotID: s.snap.ID.String(),
		Building:   b,
		Classes:    classes,
		Labels: map[string]string{
			urban.Era.String():         s.legend.Label(urban.Era, classes.Era),
			urban.LandUseTax.String():  s.legend.Label(urban.LandUseTax, classes.LandUse),
			urban.HeightClass.String(): s.legend.Label(urban.HeightClass, classes.Height),
		},
	})
}

func (s *Server) eras(w http.ResponseWriter, _ *http.Request) {
	presets := urban.EraPresets()
	out := make([]eraPreset, len(presets))
	for i, p := range presets {
		out[i] = eraPreset{
			Bucket: i,
			Start:  p.Start,
			End:    p.End,
			Label:  s.legend.Label(urban.Era, urban.Bucket(i)),
			Color:  s.legend.Color(urban.Era, urban.Bucket(i)),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) cacheStats(w http.ResponseWriter, _ *http.Request) {
	if s.cache == nil {
		writeJSON(w, http.StatusOK, map[string]any{"enabled": false})
		return
	}
	writeJSON(w, http.StatusOK, s.cache.Stats())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
