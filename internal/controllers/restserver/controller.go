package restserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/chrissnell/remoteclimate/internal/database"
	"github.com/chrissnell/remoteclimate/internal/events"
	"github.com/chrissnell/remoteclimate/internal/log"
	"github.com/chrissnell/remoteclimate/internal/summary"
	"github.com/chrissnell/remoteclimate/pkg/climate"
	"github.com/chrissnell/remoteclimate/pkg/config"
)

// SummaryService computes period summaries and 24 hour maximums.
type SummaryService interface {
	Max24Hour(ctx context.Context, stationID int, element database.HourlyElement, begin, end climate.Date) (climate.WindowMax, error)
	PeriodSummary(ctx context.Context, stationID int, begin, end climate.Date) (summary.PeriodSummary, error)
}

// RecordIngester stores observations and checks them against the records.
type RecordIngester interface {
	Ingest(ctx context.Context, obs climate.Observation) ([]events.RecordEvent, error)
}

// RecordReader reads stored records and observations.
type RecordReader interface {
	DayRecords(ctx context.Context, stationID int, monthDay string) (climate.DayRecords, error)
	PeriodRecords(ctx context.Context, stationID int, period climate.PeriodType, month time.Month) (climate.PeriodRecords, error)
	DailyRange(ctx context.Context, stationID int, begin, end climate.Date) ([]climate.Observation, error)
	ClimatePeriod(ctx context.Context, stationID int) (database.ClimatePeriod, error)
}

// HealthReporter answers readiness checks.
type HealthReporter interface {
	IsHealthy(backend string, maxAge time.Duration, now time.Time) bool
}

// Services are the backends behind the API.
type Services struct {
	Summary  SummaryService
	Records  RecordIngester
	Reader   RecordReader
	Health   HealthReporter
	Stations []config.StationData

	// HealthBackend and HealthMaxAge select the health entry /readyz checks.
	HealthBackend string
	HealthMaxAge  time.Duration
	Clock         clockwork.Clock
	Metrics       http.Handler
}

// Controller represents the REST server controller
type Controller struct {
	ctx        context.Context
	wg         *sync.WaitGroup
	restConfig config.RESTData
	Server     http.Server
	logger     *zap.SugaredLogger
	handlers   *Handlers
}

// NewController creates a new REST server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, rc config.RESTData, svc Services, logger *zap.SugaredLogger) (*Controller, error) {
	if svc.Summary == nil || svc.Records == nil || svc.Reader == nil {
		return nil, errors.New("REST server needs summary, record and reader services")
	}
	if logger == nil {
		logger = log.Named("rest")
	}

	// If a ListenAddr was not provided, listen on all interfaces
	if rc.ListenAddr == "" {
		logger.Infof("rest.listen_addr not provided; defaulting to %s (all interfaces)", config.DefaultListenAddr)
		rc.ListenAddr = config.DefaultListenAddr
	}
	if rc.Port == 0 {
		logger.Infof("rest.port not provided; defaulting to %d", config.DefaultPort)
		rc.Port = config.DefaultPort
	}

	ctrl := &Controller{
		ctx:        ctx,
		wg:         wg,
		restConfig: rc,
		logger:     logger,
		handlers:   NewHandlers(svc),
	}

	ctrl.Server.Addr = fmt.Sprintf("%v:%v", rc.ListenAddr, rc.Port)
	ctrl.Server.Handler = ctrl.Handler()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	c.logger.Infow("starting REST server", "addr", c.Server.Addr)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		var err error
		if c.restConfig.Cert != "" && c.restConfig.Key != "" {
			err = c.Server.ListenAndServeTLS(c.restConfig.Cert, c.restConfig.Key)
		} else {
			err = c.Server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Errorf("REST server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		c.logger.Info("shutting down the REST server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.Server.Shutdown(shutdownCtx); err != nil {
			c.logger.Warnf("REST server shutdown: %v", err)
		}
	}()

	return nil
}

// Handler returns the routed handler with request logging.
func (c *Controller) Handler() http.Handler {
	router := c.setupRouter()
	router.Use(log.HTTPMiddleware(c.logger))
	return router
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()
	h := c.handlers

	router.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)
	router.HandleFunc("/readyz", h.Readyz).Methods(http.MethodGet)
	router.Handle("/metrics", h.metrics).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/stations", h.GetStations).Methods(http.MethodGet)

	st := api.PathPrefix("/stations/{station:[0-9]+}").Subrouter()
	st.Use(h.stationMiddleware)
	st.HandleFunc("/max24h", h.GetMax24Hour).Methods(http.MethodGet)
	st.HandleFunc("/summary", h.GetSummary).Methods(http.MethodGet)
	st.HandleFunc("/period", h.GetClimatePeriod).Methods(http.MethodGet)
	st.HandleFunc("/records/{monthday:[0-9]{2}-[0-9]{2}}", h.GetDayRecords).Methods(http.MethodGet)
	st.HandleFunc("/records/{period}/{month:[0-9]{1,2}}", h.GetPeriodRecords).Methods(http.MethodGet)
	st.HandleFunc("/observations", h.GetObservations).Methods(http.MethodGet)
	st.HandleFunc("/observations", h.PostObservation).Methods(http.MethodPost)

	return router
}

func defaultMetricsHandler() http.Handler {
	return promhttp.Handler()
}
