// Package httpapi exposes the loaded competition over HTTP for UI and report
// collaborators.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"meetcore/internal/core"
	"meetcore/pkg/domain"
)

// ErrUnsavedChanges is returned by Reload when the graph holds edits that
// were never saved.
var ErrUnsavedChanges = errors.New("competition has unsaved changes")

// Logger is the request and reload logger. *slog.Logger satisfies it.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Handler serves the competition API. core.Service is single-threaded, so
// every request holds mu for its whole duration.
type Handler struct {
	mu      sync.Mutex
	svc     *core.Service
	logger  Logger
	origins []string
	metrics http.Handler
	router  chi.Router
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger logs requests and reloads to logger.
func WithLogger(logger Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithAllowedOrigins enables CORS for the listed origins.
func WithAllowedOrigins(origins ...string) Option {
	return func(h *Handler) { h.origins = origins }
}

// WithMetricsHandler mounts m at /metrics.
func WithMetricsHandler(m http.Handler) Option {
	return func(h *Handler) { h.metrics = m }
}

// NewHandler constructs the API over svc.
func NewHandler(svc *core.Service, opts ...Option) *Handler {
	h := &Handler{svc: svc, logger: noopLogger{}}
	for _, opt := range opts {
		opt(h)
	}
	h.router = h.routes()
	return h
}

func (h *Handler) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.accessLog)
	if len(h.origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: h.origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/competition", h.locked(h.getCompetition))
		r.Get("/categories", h.locked(h.getCategories))
		r.Get("/clubs", h.locked(h.getClubs))
		r.Get("/licensees", h.locked(h.getLicensees))
		r.Get("/athletes", h.locked(h.getAthletes))
		r.Get("/referees", h.locked(h.getReferees))
		r.Get("/races", h.locked(h.getRaces))
		r.Get("/races/{id}/teams", h.locked(h.getRaceTeams))
		r.Post("/races/{id}/categories/{categoryID}", h.locked(h.linkRaceCategory))
		r.Delete("/races/{id}/categories/{categoryID}", h.locked(h.unlinkRaceCategory))
		r.Get("/teams", h.locked(h.getTeams))
		r.Post("/teams/{id}/forfeit", h.locked(h.postTeamForfeit))
		r.Post("/results/{id}/forfeit", h.locked(h.postResultForfeit))
		r.Get("/meeting-elements", h.locked(h.getMeetingElements))
		r.Put("/meeting-elements/{id}/format", h.locked(h.putRaceFormat))
		r.Get("/rounds", h.locked(h.getRounds))
		r.Post("/validate", h.locked(h.postValidate))
		r.Post("/save", h.locked(h.postSave))
		r.Get("/documents", h.locked(h.getDocuments))
	})
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics)
	}
	return r
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// Reload re-reads the current document from the store. It refuses to drop
// unsaved edits.
func (h *Handler) Reload(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.svc.Dirty() {
		return ErrUnsavedChanges
	}
	key := h.svc.DocumentKey()
	if key == "" {
		return core.ErrNotLoaded
	}
	h.svc.Reset()
	if _, err := h.svc.Load(ctx, key); err != nil {
		return fmt.Errorf("reload %s: %w", key, err)
	}
	return nil
}

func (h *Handler) locked(fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		defer h.mu.Unlock()
		fn(w, r)
	}
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (h *Handler) getCompetition(w http.ResponseWriter, _ *http.Request) {
	comp, err := h.svc.Competition()
	if err != nil {
		h.fail(w, err)
		return
	}
	counts, _ := h.svc.Counts()
	writeJSON(w, http.StatusOK, map[string]any{"competition": competitionView{
		ID:         comp.ID,
		Name:       comp.Name,
		Location:   comp.Location,
		BeginDate:  comp.BeginDate.Format(time.DateOnly),
		EndDate:    comp.EndDate.Format(time.DateOnly),
		Speciality: string(comp.Speciality),
		Counts:     countsOf(counts),
		Key:        h.svc.DocumentKey(),
		Dirty:      h.svc.Dirty(),
	}})
}

func (h *Handler) getCategories(w http.ResponseWriter, _ *http.Request) {
	cats, err := h.svc.Categories()
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categoryViews(cats)})
}

func (h *Handler) getClubs(w http.ResponseWriter, _ *http.Request) {
	clubs, err := h.svc.Clubs()
	if err != nil {
		h.fail(w, err)
		return
	}
	out := make([]clubView, len(clubs))
	for i, c := range clubs {
		out[i] = clubView{ID: c.ID, Name: c.Name}
	}
	writeJSON(w, http.StatusOK, map[string]any{"clubs": out})
}

// getLicensees orders by name, or by club then name with ?order=club.
func (h *Handler) getLicensees(w http.ResponseWriter, r *http.Request) {
	list := h.svc.Licensees
	switch r.URL.Query().Get("order") {
	case "", "name":
	case "club":
		list = h.svc.LicenseesByClub
	default:
		writeError(w, http.StatusBadRequest, "order must be name or club")
		return
	}
	licensees, err := list()
	if err != nil {
		h.fail(w, err)
		return
	}
	out := make([]licenseeView, len(licensees))
	for i, l := range licensees {
		out[i] = licenseeOf(l)
	}
	writeJSON(w, http.StatusOK, map[string]any{"licensees": out})
}

func (h *Handler) getAthletes(w http.ResponseWriter, _ *http.Request) {
	athletes, err := h.svc.Athletes()
	if err != nil {
		h.fail(w, err)
		return
	}
	out := make([]licenseeView, len(athletes))
	for i, a := range athletes {
		out[i] = licenseeOf(a)
	}
	writeJSON(w, http.StatusOK, map[string]any{"athletes": out})
}

func (h *Handler) getReferees(w http.ResponseWriter, _ *http.Request) {
	refs, err := h.svc.Referees()
	if err != nil {
		h.fail(w, err)
		return
	}
	out := make([]licenseeView, len(refs))
	for i, ref := range refs {
		out[i] = licenseeOf(ref)
	}
	writeJSON(w, http.StatusOK, map[string]any{"referees": out})
}

func (h *Handler) getRaces(w http.ResponseWriter, _ *http.Request) {
	races, err := h.svc.Races()
	if err != nil {
		h.fail(w, err)
		return
	}
	out := make([]raceView, len(races))
	for i, race := range races {
		cats, err := h.svc.RaceCategories(race.ID)
		if err != nil {
			h.fail(w, err)
			return
		}
		out[i] = raceOf(race, cats)
	}
	writeJSON(w, http.StatusOK, map[string]any{"races": out})
}

func (h *Handler) getRaceTeams(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	teams, err := h.svc.RaceTeams(id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"teams": teamViews(teams)})
}

func (h *Handler) linkRaceCategory(w http.ResponseWriter, r *http.Request) {
	h.raceCategory(w, r, h.svc.AddRaceCategory)
}

func (h *Handler) unlinkRaceCategory(w http.ResponseWriter, r *http.Request) {
	h.raceCategory(w, r, h.svc.RemoveRaceCategory)
}

func (h *Handler) raceCategory(w http.ResponseWriter, r *http.Request, op func(raceID, categoryID int) (bool, error)) {
	raceID, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	categoryID, ok := intParam(w, r, "categoryID")
	if !ok {
		return
	}
	changed, err := op(raceID, categoryID)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"changed": changed})
}

// getTeams orders by club, or by entry time with ?order=entry_time.
func (h *Handler) getTeams(w http.ResponseWriter, r *http.Request) {
	list := h.svc.Teams
	switch r.URL.Query().Get("order") {
	case "", "club":
	case "entry_time":
		list = h.svc.TeamsByEntryTime
	default:
		writeError(w, http.StatusBadRequest, "order must be club or entry_time")
		return
	}
	teams, err := list()
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"teams": teamViews(teams)})
}

type forfeitRequest struct {
	Forfeit bool `json:"forfeit"`
	// Final targets the final only.
	Final bool `json:"final"`
}

func (h *Handler) postTeamForfeit(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	var req forfeitRequest
	if !decodeBody(w, r, &req) {
		return
	}
	set := h.svc.SetTeamForfeit
	if req.Final {
		set = h.svc.SetTeamForfeitFinal
	}
	team, err := set(id, req.Forfeit)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"team": teamOf(team)})
}

func (h *Handler) postResultForfeit(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	var req forfeitRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := h.svc.SetResultForfeit(id, req.Forfeit)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": resultOf(res)})
}

func (h *Handler) getMeetingElements(w http.ResponseWriter, _ *http.Request) {
	elements, err := h.svc.MeetingElements()
	if err != nil {
		h.fail(w, err)
		return
	}
	out := make([]meetingElementView, len(elements))
	for i, m := range elements {
		out[i] = meetingOf(m)
	}
	writeJSON(w, http.StatusOK, map[string]any{"meeting_elements": out})
}

type raceFormatRequest struct {
	Details []formatDetailView `json:"details"`
}

func (h *Handler) putRaceFormat(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	var req raceFormatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	details := make([]domain.RaceFormatDetail, len(req.Details))
	for i, d := range req.Details {
		details[i] = domain.RaceFormatDetail{
			Order:          d.Order,
			Label:          d.Label,
			Level:          domain.FormatLevel(d.Level),
			NumberOfHeats:  d.NumberOfHeats,
			QualifiedCount: d.QualifiedCount,
		}
	}
	m, err := h.svc.UpdateRaceFormat(id, details)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"meeting_element": meetingOf(m)})
}

func (h *Handler) getRounds(w http.ResponseWriter, _ *http.Request) {
	rounds, err := h.svc.Rounds()
	if err != nil {
		h.fail(w, err)
		return
	}
	out := make([]roundView, len(rounds))
	for i, rd := range rounds {
		out[i] = roundView{ID: rd.ID, MeetingElementID: rd.MeetingElementID, CategoryID: rd.CategoryID, Name: rd.Name, Order: rd.Order}
	}
	writeJSON(w, http.StatusOK, map[string]any{"rounds": out})
}

func (h *Handler) postValidate(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Validate(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"blocking":   res.HasBlocking(),
		"violations": violationViews(res),
	})
}

func (h *Handler) postSave(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.Save(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"document": documentOf(info)})
}

func (h *Handler) getDocuments(w http.ResponseWriter, r *http.Request) {
	infos, err := h.svc.Documents(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	out := make([]documentView, len(infos))
	for i, info := range infos {
		out[i] = documentOf(info)
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": out})
}

// fail maps service errors onto HTTP statuses.
func (h *Handler) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrNotLoaded):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrMalformedEntity), errors.Is(err, domain.ErrUnresolvedReference):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrIOFailure):
		status = http.StatusBadGateway
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
	}
	writeError(w, status, err.Error())
}

func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
		return 0, false
	}
	return v, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
