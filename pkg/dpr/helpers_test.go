package dpr

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"p9e.in/sitedpr/models"
)

// fakeBackend is an in-memory stand-in for the real API, with counters
// so tests can assert exactly how many requests each operation issued.
type fakeBackend struct {
	mu sync.Mutex

	dpr   models.DPR
	logs  []models.WorkerLog
	snaps map[int]models.VersionSnapshot

	getDPRCount   int
	submitCount   int
	statusWrites  int
	captionWrites int
	logListCount  int
	logSaveCount  map[string]int
	lastLogQuery  url.Values

	failLogSave  bool
	failSubmit   bool
	bareLogArray bool

	// When set, PUT /worker-logs blocks until the channel is closed.
	logSaveGate chan struct{}
}

func newFakeBackend() *fakeBackend {
	projectID := uuid.New()
	supervisorID := uuid.New()
	b := &fakeBackend{
		logSaveCount: make(map[string]int),
		snaps:        make(map[int]models.VersionSnapshot),
	}
	b.dpr = models.DPR{
		ID:            uuid.New(),
		ProjectID:     projectID,
		DPRDate:       "2025-03-14",
		SupervisorID:  supervisorID,
		Status:        models.DPRStatusDraft,
		ProgressNotes: "footings poured on grid A",
		Images:        models.DPRImageList{},
		Version:       1,
	}
	return b
}

func (b *fakeBackend) addImages(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := 0; i < n; i++ {
		b.dpr.Images = append(b.dpr.Images, models.DPRImage{
			ImageID:    uuid.NewString(),
			Caption:    "",
			UploadedAt: models.JSONTime(time.Now()),
		})
	}
	b.dpr.ImageCount = len(b.dpr.Images)
}

func (b *fakeBackend) addLog(vendor string, workers int) models.WorkerLog {
	b.mu.Lock()
	defer b.mu.Unlock()
	l := models.WorkerLog{
		ID:        uuid.New(),
		ProjectID: b.dpr.ProjectID,
		Date:      b.dpr.DPRDate,
		Entries: models.WorkerLogEntryList{
			{VendorName: vendor, WorkersCount: workers},
		},
	}
	l.RecomputeTotal()
	b.logs = append(b.logs, l)
	return l
}

func (b *fakeBackend) snapshot(version int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	frozen := b.dpr
	frozen.Version = version
	data, _ := json.Marshal(frozen)
	b.snaps[version] = models.VersionSnapshot{
		ID:           uuid.New(),
		EntityType:   models.SnapshotEntityDPR,
		EntityID:     b.dpr.ID,
		Version:      version,
		DataJSON:     data,
		DataChecksum: models.SnapshotChecksum(data),
	}
}

func (b *fakeBackend) handler() http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	writeJSON := func(w http.ResponseWriter, v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	}

	api.HandleFunc("/dpr/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.getDPRCount++
		if mux.Vars(r)["id"] != b.dpr.ID.String() {
			http.Error(w, "DPR not found", http.StatusNotFound)
			return
		}
		writeJSON(w, b.dpr)
	}).Methods("GET")

	api.HandleFunc("/dpr/{id}", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ProgressNotes *string `json:"progress_notes"`
			Status        *string `json:"status"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		b.mu.Lock()
		defer b.mu.Unlock()
		if req.Status != nil {
			b.statusWrites++
			b.dpr.Status = models.DPRStatus(*req.Status)
		}
		if req.ProgressNotes != nil {
			b.dpr.ProgressNotes = *req.ProgressNotes
		}
		b.dpr.Version++
		writeJSON(w, b.dpr)
	}).Methods("PUT")

	api.HandleFunc("/dpr/{id}/submit", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.submitCount++
		if b.failSubmit {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		if len(b.dpr.Images) < models.MinSubmitImages {
			http.Error(w, "not enough images", http.StatusBadRequest)
			return
		}
		b.dpr.Status = models.DPRStatusSubmitted
		b.dpr.LockedFlag = true
		b.dpr.Version++
		writeJSON(w, b.dpr)
	}).Methods("POST")

	api.HandleFunc("/dpr/{id}/images", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ImageData string `json:"image_data"`
			Caption   string `json:"caption"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		b.mu.Lock()
		defer b.mu.Unlock()
		b.dpr.Images = append(b.dpr.Images, models.DPRImage{
			ImageID:   uuid.NewString(),
			ImageData: req.ImageData,
			Caption:   req.Caption,
		})
		b.dpr.ImageCount = len(b.dpr.Images)
		b.dpr.Version++
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, map[string]int{"image_count": b.dpr.ImageCount})
	}).Methods("POST")

	api.HandleFunc("/dpr/{id}/images/{imageId}/caption", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Caption string `json:"caption"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		b.mu.Lock()
		defer b.mu.Unlock()
		b.captionWrites++
		img := b.dpr.ImageByID(mux.Vars(r)["imageId"])
		if img == nil {
			http.Error(w, "image not found", http.StatusNotFound)
			return
		}
		img.Caption = req.Caption
		b.dpr.Version++
		writeJSON(w, b.dpr)
	}).Methods("PUT")

	api.HandleFunc("/worker-logs", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.logListCount++
		b.lastLogQuery = r.URL.Query()
		if b.bareLogArray {
			writeJSON(w, b.logs)
			return
		}
		writeJSON(w, map[string]interface{}{"logs": b.logs})
	}).Methods("GET")

	api.HandleFunc("/worker-logs/{id}", func(w http.ResponseWriter, r *http.Request) {
		if b.logSaveGate != nil {
			<-b.logSaveGate
		}

		var req struct {
			Entries models.WorkerLogEntryList `json:"entries"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		b.mu.Lock()
		defer b.mu.Unlock()
		id := mux.Vars(r)["id"]
		b.logSaveCount[id]++
		if b.failLogSave {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		for i := range b.logs {
			if b.logs[i].ID.String() == id {
				b.logs[i].Entries = req.Entries
				b.logs[i].NormalizeEntries()
				b.logs[i].RecomputeTotal()
				writeJSON(w, b.logs[i])
				return
			}
		}
		http.Error(w, "worker log not found", http.StatusNotFound)
	}).Methods("PUT")

	api.HandleFunc("/dpr/{id}/versions", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		metas := []VersionMeta{}
		for v, s := range b.snaps {
			metas = append(metas, VersionMeta{
				SnapshotID: s.ID.String(), Version: v, Checksum: s.DataChecksum,
			})
		}
		writeJSON(w, map[string]interface{}{"versions": metas})
	}).Methods("GET")

	api.HandleFunc("/dpr/{id}/versions/data", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		version, err := strconv.Atoi(r.URL.Query().Get("version"))
		if err != nil {
			http.Error(w, "invalid version", http.StatusBadRequest)
			return
		}
		snap, ok := b.snaps[version]
		if !ok {
			http.Error(w, "version not found", http.StatusNotFound)
			return
		}
		writeJSON(w, snap)
	}).Methods("GET")

	return r
}

// newTestEngine spins up the fake backend and a controller bound to it.
func newTestEngine(t *testing.T, b *fakeBackend) (*Controller, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(b.handler())
	t.Cleanup(srv.Close)
	return NewController(NewClient(srv.URL, "test-token")), srv
}
