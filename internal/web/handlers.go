package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/tasteline/tasteline/internal/analytics"
	"github.com/tasteline/tasteline/internal/eras"
	"github.com/tasteline/tasteline/internal/export"
	"github.com/tasteline/tasteline/internal/ingest"
	"github.com/tasteline/tasteline/internal/store"
	"github.com/tasteline/tasteline/internal/temporal"
)

// defaultErasLookback bounds era detection when no explicit range is
// given.
const defaultErasLookback = 2 * 365 * 24 * time.Hour

// feedbackWriter persists feedback events.
type feedbackWriter interface {
	Insert(ctx context.Context, ev *analytics.FeedbackEvent) error
}

// userWriter maintains user account rows.
type userWriter interface {
	Upsert(ctx context.Context, user *store.User) error
}

// exportRecorder appends export records to a stored snapshot.
type exportRecorder interface {
	RecordExport(ctx context.Context, id uuid.UUID, record analytics.ExportRecord) error
}

// importer runs a listening history import.
type importer interface {
	Run(ctx context.Context, src ingest.Source, userID string, force bool) (*ingest.Result, error)
}

// sourceFactory builds an ingest source from a request's OAuth token.
type sourceFactory func(ctx context.Context, token *oauth2.Token) ingest.Source

// Handlers contains the HTTP handlers for the analytics API.
type Handlers struct {
	engine    *analytics.Engine
	feedback  feedbackWriter
	users     userWriter
	exports   exportRecorder
	importer  importer
	newSource sourceFactory
	now       func() time.Time
	log       zerolog.Logger
}

// NewHandlers creates a Handlers instance.
func NewHandlers(engine *analytics.Engine, feedback feedbackWriter, users userWriter, exports exportRecorder, imp importer, newSource sourceFactory, log zerolog.Logger) *Handlers {
	return &Handlers{
		engine:    engine,
		feedback:  feedback,
		users:     users,
		exports:   exports,
		importer:  imp,
		newSource: newSource,
		now:       time.Now,
		log:       log,
	}
}

type contextKey string

const userIDKey contextKey = "userID"

// requireUser extracts the caller's identity from the X-User-ID header.
// Identity is pre-validated upstream; a missing header is a client
// error.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			badRequest(w, "missing X-User-ID header")
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

// Timeline handles GET /api/timeline.
func (h *Handlers) Timeline(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	start, err := parseDate(q.Get("start"))
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	end, err := parseDate(q.Get("end"))
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	granularity := temporal.Month
	if raw := q.Get("granularity"); raw != "" {
		granularity, err = temporal.ParseGranularity(raw)
		if err != nil {
			badRequest(w, err.Error())
			return
		}
	}

	filter, err := parseTimelineFilter(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	resp, err := h.engine.GetTimeline(r.Context(), userID(r), start, end, granularity, filter)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Seasonal handles GET /api/seasonal.
func (h *Handlers) Seasonal(w http.ResponseWriter, r *http.Request) {
	resp, err := h.engine.GetSeasonalPatterns(r.Context(), userID(r))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Monthly handles GET /api/seasonal/monthly.
func (h *Handlers) Monthly(w http.ResponseWriter, r *http.Request) {
	resp, err := h.engine.GetMonthlyPatterns(r.Context(), userID(r))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Compare handles POST /api/compare.
func (h *Handlers) Compare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	past, err := parseWindow(req.PastStart, req.PastEnd)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	current, err := parseWindow(req.CurrentStart, req.CurrentEnd)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	resp, err := h.engine.CompareTaste(r.Context(), userID(r), past, current)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseWindow(start, end string) (analytics.Window, error) {
	s, err := parseDate(start)
	if err != nil {
		return analytics.Window{}, err
	}
	e, err := parseDate(end)
	if err != nil {
		return analytics.Window{}, err
	}
	return analytics.Window{Start: s, End: e}, nil
}

// RegeneratePlaylist handles POST /api/playlist/regenerate.
func (h *Handlers) RegeneratePlaylist(w http.ResponseWriter, r *http.Request) {
	var req playlistRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	window, err := parseWindow(req.PeriodStart, req.PeriodEnd)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	resp, err := h.engine.RegeneratePlaylist(r.Context(), userID(r), analytics.RegenerateRequest{
		PeriodStart: window.Start,
		PeriodEnd:   window.End,
		BlendRatio:  req.BlendRatio,
		MaxTracks:   req.MaxTracks,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateSnapshot handles POST /api/snapshots.
func (h *Handlers) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	var req snapshotRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	window, err := parseWindow(req.PeriodStart, req.PeriodEnd)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	snap, err := h.engine.CreateSnapshot(r.Context(), userID(r), analytics.CreateSnapshotRequest{
		Name:        req.Name,
		PeriodStart: window.Start,
		PeriodEnd:   window.End,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// ListSnapshots handles GET /api/snapshots.
func (h *Handlers) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.engine.ListSnapshots(r.Context(), userID(r))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if snaps == nil {
		snaps = []analytics.TasteSnapshot{}
	}
	writeJSON(w, http.StatusOK, snaps)
}

// GetSnapshot handles GET /api/snapshots/{id}.
func (h *Handlers) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid snapshot id")
		return
	}

	snap, err := h.ownedSnapshot(r, id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// ownedSnapshot loads a snapshot and hides other users' snapshots
// behind the same not-found error as missing ones.
func (h *Handlers) ownedSnapshot(r *http.Request, id uuid.UUID) (*analytics.TasteSnapshot, error) {
	snap, err := h.engine.GetSnapshot(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if snap.UserID != userID(r) {
		return nil, store.ErrNotFound
	}
	return snap, nil
}

// ExportSnapshot handles GET /api/snapshots/{id}/export.
func (h *Handlers) ExportSnapshot(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid snapshot id")
		return
	}

	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	snap, err := h.ownedSnapshot(r, id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	body, err := export.Render(snap, format)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	record := analytics.ExportRecord{Format: string(format), ExportedAt: h.now().UTC()}
	if err := h.exports.RecordExport(r.Context(), id, record); err != nil {
		writeError(w, h.log, err)
		return
	}

	contentType := "application/json; charset=utf-8"
	if format == export.Delimited {
		contentType = "text/csv; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// Eras handles GET /api/eras.
func (h *Handlers) Eras(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	end := h.now().UTC()
	start := end.Add(-defaultErasLookback)

	var err error
	if raw := q.Get("start"); raw != "" {
		if start, err = parseDate(raw); err != nil {
			badRequest(w, err.Error())
			return
		}
	}
	if raw := q.Get("end"); raw != "" {
		if end, err = parseDate(raw); err != nil {
			badRequest(w, err.Error())
			return
		}
	}

	timeline, err := h.engine.GetTimeline(r.Context(), userID(r), start, end, temporal.Month, nil)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	detected, err := eras.Detect(timeline.DataPoints, eras.DefaultConfig())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if detected == nil {
		detected = []eras.Era{}
	}
	writeJSON(w, http.StatusOK, detected)
}

// CreateFeedback handles POST /api/feedback.
func (h *Handlers) CreateFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	artist, title := req.Artist, req.Title
	if artist == "" && req.Track != "" {
		artist, title = splitComposite(req.Track)
	}
	if artist == "" {
		badRequest(w, "artist is required")
		return
	}

	timestamp := h.now().UTC()
	if req.Timestamp != "" {
		var err error
		if timestamp, err = parseDate(req.Timestamp); err != nil {
			badRequest(w, err.Error())
			return
		}
	}

	attrs := temporal.Classify(timestamp)
	ev := &analytics.FeedbackEvent{
		ID:        uuid.New(),
		UserID:    userID(r),
		Artist:    artist,
		Title:     title,
		Type:      analytics.FeedbackType(req.FeedbackType),
		Timestamp: timestamp,
		Month:     attrs.Month,
		Season:    attrs.Season,
		DayOfWeek: attrs.DayOfWeek,
		HourOfDay: attrs.HourOfDay,
	}

	if err := h.feedback.Insert(r.Context(), ev); err != nil {
		writeError(w, h.log, err)
		return
	}

	h.engine.Invalidate(ev.UserID)

	writeJSON(w, http.StatusCreated, ev)
}

// IngestSpotify handles POST /api/ingest/spotify.
func (h *Handlers) IngestSpotify(w http.ResponseWriter, r *http.Request) {
	var req spotifyIngestRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	token := &oauth2.Token{
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		TokenType:    "Bearer",
	}
	src := h.newSource(r.Context(), token)

	result, err := h.importer.Run(r.Context(), src, userID(r), req.Force)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// UpdateProfile handles PUT /api/profile.
func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	user := &store.User{ID: userID(r), DisplayName: req.DisplayName}
	if err := h.users.Upsert(r.Context(), user); err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"id":          user.ID,
		"displayName": user.DisplayName,
	})
}

// InvalidateCache handles POST /api/cache/invalidate. The user scope
// is optional; without it the whole cache is flushed.
func (h *Handlers) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	scope := r.Header.Get("X-User-ID")
	h.engine.Invalidate(scope)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
