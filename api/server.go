package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/matt-g-everett/sensorar/colour"
	"github.com/matt-g-everett/sensorar/registry"
	"github.com/matt-g-everett/sensorar/router"
)

// Controller runs functions against the router on its owning goroutine.
type Controller interface {
	Do(ctx context.Context, fn func(*router.Router)) error
}

// Charts looks up rendered series charts.
type Charts interface {
	Get(device int, kind registry.SeriesKind) ([]byte, bool)
}

type Api struct {
	ctl      Controller
	charts   Charts
	hub      *Hub
	metric   colour.Metric
	static   string
	upgrader websocket.Upgrader
}

func NewApi(ctl Controller, charts Charts, hub *Hub, metric colour.Metric, static string) *Api {
	a := new(Api)
	a.ctl = ctl
	a.charts = charts
	a.hub = hub
	a.metric = metric
	a.static = static
	a.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(*http.Request) bool { return true },
	}
	return a
}

// Handler returns the routes served by the Api.
func (a *Api) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/devices", a.handleDevices)
	mux.HandleFunc("GET /api/mode", a.handleMode)
	mux.HandleFunc("POST /api/mode/advance", a.handleAdvance)
	mux.HandleFunc("POST /api/priority", a.handlePriority)
	mux.HandleFunc("GET /api/options", a.handleOptions)
	mux.HandleFunc("POST /api/options/toggle", a.handleToggleOption)
	mux.HandleFunc("GET /api/references", a.handleReferences)
	mux.HandleFunc("POST /api/references", a.handleAddReference)
	mux.HandleFunc("POST /api/placements", a.handlePlacements)
	mux.HandleFunc("GET /charts/{device}/{series}", a.handleChart)
	if a.hub != nil {
		mux.HandleFunc("GET /ws", a.handleWebSocket)
	}
	if a.static != "" {
		mux.Handle("/", http.FileServer(http.Dir(a.static)))
	}
	return mux
}

// Serve listens on addr until ctx is cancelled.
func (a *Api) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()

	log.Printf("Listening on %s...", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func readJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return false
	}
	return true
}

// do runs fn on the controller, answering 503 when it is not running.
func (a *Api) do(w http.ResponseWriter, r *http.Request, fn func(*router.Router)) bool {
	if err := a.ctl.Do(r.Context(), fn); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return false
	}
	return true
}

type modeResponse struct {
	Mode     router.Mode `json:"mode"`
	Priority int         `json:"priority"`
}

func (a *Api) handleDevices(w http.ResponseWriter, r *http.Request) {
	var views []router.DeviceView
	if a.do(w, r, func(rt *router.Router) { views = rt.Snapshot() }) {
		writeJSON(w, http.StatusOK, views)
	}
}

func (a *Api) handleMode(w http.ResponseWriter, r *http.Request) {
	var resp modeResponse
	if a.do(w, r, func(rt *router.Router) { resp = modeResponse{rt.Mode(), rt.Priority()} }) {
		writeJSON(w, http.StatusOK, resp)
	}
}

func (a *Api) handleAdvance(w http.ResponseWriter, r *http.Request) {
	var resp modeResponse
	if a.do(w, r, func(rt *router.Router) { resp = modeResponse{rt.Advance(), rt.Priority()} }) {
		writeJSON(w, http.StatusOK, resp)
	}
}

func (a *Api) handlePriority(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Device *int `json:"device"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	if req.Device == nil {
		writeError(w, http.StatusBadRequest, errors.New("device is required"))
		return
	}

	var resp modeResponse
	if a.do(w, r, func(rt *router.Router) {
		rt.SelectPriority(*req.Device)
		resp = modeResponse{rt.Mode(), rt.Priority()}
	}) {
		writeJSON(w, http.StatusOK, resp)
	}
}

type optionsResponse struct {
	Selected  []router.Option `json:"selected"`
	Available []router.Option `json:"available"`
}

func (a *Api) handleOptions(w http.ResponseWriter, r *http.Request) {
	var resp optionsResponse
	if a.do(w, r, func(rt *router.Router) { resp = optionsResponse{rt.Options(), router.Options} }) {
		writeJSON(w, http.StatusOK, resp)
	}
}

func (a *Api) handleToggleOption(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Option string `json:"option"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	o, err := router.ParseOption(req.Option)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var resp optionsResponse
	if a.do(w, r, func(rt *router.Router) {
		rt.ToggleOption(o)
		resp = optionsResponse{rt.Options(), router.Options}
	}) {
		writeJSON(w, http.StatusOK, resp)
	}
}

func (a *Api) handleReferences(w http.ResponseWriter, r *http.Request) {
	var refs []colour.Reference
	if a.do(w, r, func(rt *router.Router) { refs = rt.References() }) {
		writeJSON(w, http.StatusOK, refs)
	}
}

func (a *Api) handleAddReference(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Entry string `json:"entry"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	ref, err := colour.ParseReference(req.Entry)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if a.do(w, r, func(rt *router.Router) { rt.AddReference(ref) }) {
		writeJSON(w, http.StatusCreated, ref)
	}
}

type blobRequest struct {
	Centroid colour.Point `json:"centroid"`
	Colour   string       `json:"colour"`
	Area     float64      `json:"area"`
}

type placementRequest struct {
	Image colour.Size   `json:"image"`
	View  colour.Size   `json:"view"`
	Blobs []blobRequest `json:"blobs"`
}

func (a *Api) handlePlacements(w http.ResponseWriter, r *http.Request) {
	var req placementRequest
	if !readJSON(w, r, &req) {
		return
	}

	blobs := make([]colour.DetectedBlob, len(req.Blobs))
	for i, b := range req.Blobs {
		c, err := colorful.Hex(b.Colour)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("blob %d: %w", i, err))
			return
		}
		blobs[i] = colour.DetectedBlob{Centroid: b.Centroid, Colour: c, Area: b.Area, Index: i}
	}

	// Assignment runs here on a copy of the references; only registration
	// goes through the controller.
	var refs []colour.Reference
	if !a.do(w, r, func(rt *router.Router) { refs = rt.References() }) {
		return
	}

	placements, err := colour.Place(blobs, refs, req.Image, req.View, a.metric)
	switch {
	case errors.Is(err, colour.ErrInsufficientReferences):
		writeError(w, http.StatusConflict, err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	if a.do(w, r, func(rt *router.Router) { rt.Place(placements) }) {
		writeJSON(w, http.StatusOK, placements)
	}
}

func (a *Api) handleChart(w http.ResponseWriter, r *http.Request) {
	device, err := strconv.Atoi(r.PathValue("device"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("bad device %q", r.PathValue("device")))
		return
	}
	kind, ok := registry.ParseSeriesKind(r.PathValue("series"))
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown series %q", r.PathValue("series")))
		return
	}

	b, ok := a.charts.Get(device, kind)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("no %s chart for device %d", kind, device))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(b)
}

type snapshotMessage struct {
	Kind    string              `json:"kind"`
	Mode    router.Mode         `json:"mode"`
	Devices []router.DeviceView `json:"devices"`
}

func (a *Api) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade: %v", err)
		return
	}

	// The snapshot is taken after the client is registered, so nothing
	// published in between is missed.
	a.hub.Attach(conn, func() ([]byte, error) {
		msg := snapshotMessage{Kind: "snapshot"}
		err := a.ctl.Do(r.Context(), func(rt *router.Router) {
			msg.Mode = rt.Mode()
			msg.Devices = rt.Snapshot()
		})
		if err != nil {
			return nil, err
		}
		return json.Marshal(msg)
	})
}
