package restserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"

	"github.com/chrissnell/remoteclimate/internal/database"
	"github.com/chrissnell/remoteclimate/internal/events"
	"github.com/chrissnell/remoteclimate/internal/log"
	"github.com/chrissnell/remoteclimate/internal/storage/climatedb"
	"github.com/chrissnell/remoteclimate/internal/summary"
	"github.com/chrissnell/remoteclimate/pkg/climate"
	"github.com/chrissnell/remoteclimate/pkg/config"
	"github.com/chrissnell/remoteclimate/pkg/responseformat"
)

// MaxObservationRangeDays caps GET /observations.
const MaxObservationRangeDays = 366

type contextKey string

const stationContextKey contextKey = "station"

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	svc       Services
	stations  map[int]config.StationData
	clock     clockwork.Clock
	metrics   http.Handler
	formatter *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(svc Services) *Handlers {
	h := &Handlers{
		svc:       svc,
		stations:  make(map[int]config.StationData, len(svc.Stations)),
		clock:     svc.Clock,
		metrics:   svc.Metrics,
		formatter: responseformat.NewFormatter(),
	}
	for _, s := range svc.Stations {
		h.stations[s.ID] = s
	}
	if h.clock == nil {
		h.clock = clockwork.NewRealClock()
	}
	if h.metrics == nil {
		h.metrics = defaultMetricsHandler()
	}
	if h.svc.HealthMaxAge <= 0 {
		h.svc.HealthMaxAge = 5 * time.Minute
	}
	return h
}

// stationMiddleware resolves the {station} path variable. When stations are
// configured, unknown ids are rejected.
func (h *Handlers) stationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id, err := strconv.Atoi(mux.Vars(req)["station"])
		if err != nil {
			h.writeError(w, req, http.StatusBadRequest, "invalid station id", err)
			return
		}
		if len(h.stations) > 0 {
			if _, ok := h.stations[id]; !ok {
				h.writeError(w, req, http.StatusNotFound, fmt.Sprintf("station %d is not configured", id), nil)
				return
			}
		}
		ctx := context.WithValue(req.Context(), stationContextKey, id)
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

func stationFromContext(req *http.Request) int {
	id, _ := req.Context().Value(stationContextKey).(int)
	return id
}

// Healthz reports that the process is serving.
func (h *Handlers) Healthz(w http.ResponseWriter, req *http.Request) {
	h.write(w, req, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz reports whether the climate database passed a recent health check.
func (h *Handlers) Readyz(w http.ResponseWriter, req *http.Request) {
	if h.svc.Health == nil || h.svc.HealthBackend == "" {
		h.write(w, req, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	if !h.svc.Health.IsHealthy(h.svc.HealthBackend, h.svc.HealthMaxAge, h.clock.Now()) {
		h.writeError(w, req, http.StatusServiceUnavailable, h.svc.HealthBackend+" is not healthy", nil)
		return
	}
	h.write(w, req, http.StatusOK, map[string]string{"status": "ok"})
}

// GetStations lists the configured stations.
func (h *Handlers) GetStations(w http.ResponseWriter, req *http.Request) {
	stations := h.svc.Stations
	if stations == nil {
		stations = []config.StationData{}
	}
	h.write(w, req, http.StatusOK, stations)
}

// Max24HourResponse is the body of GET /max24h.
type Max24HourResponse struct {
	StationID int    `json:"station_id"`
	Element   string `json:"element"`
	Begin     string `json:"begin"`
	End       string `json:"end"`
	climate.WindowMax
}

// GetMax24Hour handles requests for the largest 24 hour precipitation or
// snowfall total in a date range.
func (h *Handlers) GetMax24Hour(w http.ResponseWriter, req *http.Request) {
	stationID := stationFromContext(req)

	element := database.HourlyElement(req.URL.Query().Get("element"))
	if element == "" {
		element = database.HourlyPrecip
	}
	if element != database.HourlyPrecip && element != database.HourlySnow {
		h.writeError(w, req, http.StatusBadRequest, fmt.Sprintf("element must be %q or %q", database.HourlyPrecip, database.HourlySnow), nil)
		return
	}

	begin, end, ok := h.dateRange(w, req, true)
	if !ok {
		return
	}

	m, err := h.svc.Summary.Max24Hour(req.Context(), stationID, element, begin, end)
	if err != nil {
		h.serviceError(w, req, err)
		return
	}
	if m.Occurrences == nil {
		m.Occurrences = []climate.Occurrence{}
	}

	h.write(w, req, http.StatusOK, Max24HourResponse{
		StationID: stationID,
		Element:   string(element),
		Begin:     begin.String(),
		End:       end.String(),
		WindowMax: m,
	})
}

// GetSummary handles period summary requests. With no dates it summarizes
// the current month to date.
func (h *Handlers) GetSummary(w http.ResponseWriter, req *http.Request) {
	begin, end, ok := h.dateRange(w, req, false)
	if !ok {
		return
	}

	sum, err := h.svc.Summary.PeriodSummary(req.Context(), stationFromContext(req), begin, end)
	if err != nil {
		h.serviceError(w, req, err)
		return
	}
	h.write(w, req, http.StatusOK, sum)
}

// GetClimatePeriod returns the years the station's normals and records
// cover.
func (h *Handlers) GetClimatePeriod(w http.ResponseWriter, req *http.Request) {
	p, err := h.svc.Reader.ClimatePeriod(req.Context(), stationFromContext(req))
	if err != nil {
		h.serviceError(w, req, err)
		return
	}
	h.write(w, req, http.StatusOK, p)
}

// GetDayRecords returns the daily records for a "MM-dd" key.
func (h *Handlers) GetDayRecords(w http.ResponseWriter, req *http.Request) {
	monthDay := mux.Vars(req)["monthday"]
	if _, _, err := climate.ParseMonthDay(monthDay); err != nil {
		h.writeError(w, req, http.StatusBadRequest, "invalid month-day", err)
		return
	}

	r, err := h.svc.Reader.DayRecords(req.Context(), stationFromContext(req), monthDay)
	if err != nil {
		h.serviceError(w, req, err)
		return
	}
	h.write(w, req, http.StatusOK, r)
}

// GetPeriodRecords returns the monthly, seasonal or annual temperature
// records that cover a month.
func (h *Handlers) GetPeriodRecords(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)

	period, err := climate.ParsePeriodType(vars["period"])
	if err != nil {
		h.writeError(w, req, http.StatusBadRequest, "invalid period", err)
		return
	}
	month, err := strconv.Atoi(vars["month"])
	if err != nil || month < 1 || month > 12 {
		h.writeError(w, req, http.StatusBadRequest, "month must be between 1 and 12", nil)
		return
	}

	key := climate.PeriodMonth(period, time.Month(month))
	r, err := h.svc.Reader.PeriodRecords(req.Context(), stationFromContext(req), period, key)
	if err != nil {
		h.serviceError(w, req, err)
		return
	}
	h.write(w, req, http.StatusOK, r)
}

// GetObservations returns the stored daily observations in a date range.
func (h *Handlers) GetObservations(w http.ResponseWriter, req *http.Request) {
	begin, end, ok := h.dateRange(w, req, false)
	if !ok {
		return
	}
	if begin.DaysUntil(end)+1 > MaxObservationRangeDays {
		h.writeError(w, req, http.StatusBadRequest, fmt.Sprintf("range is limited to %d days", MaxObservationRangeDays), nil)
		return
	}

	obs, err := h.svc.Reader.DailyRange(req.Context(), stationFromContext(req), begin, end)
	if err != nil {
		h.serviceError(w, req, err)
		return
	}
	if obs == nil {
		obs = []climate.Observation{}
	}
	h.write(w, req, http.StatusOK, obs)
}

// ObservationResponse is the body returned after an observation is stored.
type ObservationResponse struct {
	Observation climate.Observation  `json:"observation"`
	Events      []events.RecordEvent `json:"events"`
}

// PostObservation stores one day's observation and checks it against the
// station's records. Any breaks or ties are returned.
func (h *Handlers) PostObservation(w http.ResponseWriter, req *http.Request) {
	stationID := stationFromContext(req)

	var obs climate.Observation
	if err := h.formatter.ReadJSON(req, &obs); err != nil {
		h.writeError(w, req, http.StatusBadRequest, "", err)
		return
	}
	if obs.StationID != 0 && obs.StationID != stationID {
		h.writeError(w, req, http.StatusBadRequest, fmt.Sprintf("station_id %d does not match path station %d", obs.StationID, stationID), nil)
		return
	}
	if obs.Date.IsZero() {
		h.writeError(w, req, http.StatusBadRequest, "date is required", nil)
		return
	}
	obs.StationID = stationID

	evs, err := h.svc.Records.Ingest(req.Context(), obs)
	if err != nil {
		h.serviceError(w, req, err)
		return
	}
	if evs == nil {
		evs = []events.RecordEvent{}
	}
	h.write(w, req, http.StatusOK, ObservationResponse{Observation: obs, Events: evs})
}

// dateRange reads the begin and end query parameters. When required is
// false, a missing begin is the first of end's month and a missing end is
// the last day of begin's month, or today when that comes first. With
// neither, the range is the current month to date.
func (h *Handlers) dateRange(w http.ResponseWriter, req *http.Request, required bool) (climate.Date, climate.Date, bool) {
	q := req.URL.Query()
	rawBegin, rawEnd := q.Get("begin"), q.Get("end")

	if required && (rawBegin == "" || rawEnd == "") {
		h.writeError(w, req, http.StatusBadRequest, "begin and end are required (YYYY-MM-DD)", nil)
		return climate.Date{}, climate.Date{}, false
	}

	today := climate.DateOf(h.clock.Now())
	begin, end := today.FirstOfMonth(), today

	if rawBegin != "" {
		d, err := climate.ParseDate(rawBegin)
		if err != nil {
			h.writeError(w, req, http.StatusBadRequest, "invalid begin date", err)
			return climate.Date{}, climate.Date{}, false
		}
		begin = d
		end = d.LastOfMonth()
		if end.After(today) && !today.Before(begin) {
			end = today
		}
	}
	if rawEnd != "" {
		d, err := climate.ParseDate(rawEnd)
		if err != nil {
			h.writeError(w, req, http.StatusBadRequest, "invalid end date", err)
			return climate.Date{}, climate.Date{}, false
		}
		end = d
		if rawBegin == "" {
			begin = d.FirstOfMonth()
		}
	}

	if end.Before(begin) {
		h.writeError(w, req, http.StatusBadRequest, "", summary.ErrInvalidRange)
		return climate.Date{}, climate.Date{}, false
	}
	return begin, end, true
}

// serviceError maps backend errors to status codes.
func (h *Handlers) serviceError(w http.ResponseWriter, req *http.Request, err error) {
	switch {
	case errors.Is(err, summary.ErrInvalidRange), errors.Is(err, climate.ErrEmptySearchRange):
		h.writeError(w, req, http.StatusBadRequest, "", err)
	case errors.Is(err, climatedb.ErrRecordNotFound):
		h.writeError(w, req, http.StatusNotFound, "", err)
	case errors.Is(err, context.Canceled):
		// client went away
	default:
		log.Errorw("request failed", "path", req.URL.Path, "error", err)
		h.writeError(w, req, http.StatusInternalServerError, "internal error", nil)
	}
}

func (h *Handlers) write(w http.ResponseWriter, req *http.Request, status int, data any) {
	if err := h.formatter.WriteStatus(w, req, status, data); err != nil {
		log.Errorf("error encoding response: %v", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, req *http.Request, status int, message string, err error) {
	if werr := h.formatter.WriteError(w, req, status, message, err); werr != nil {
		log.Errorf("error encoding error response: %v", werr)
	}
}
