package appClient

import (
	"context"
	"io"
	"net/http"
	"os"

	"github.com/ds124wfegd/eventhive/config"
	"github.com/ds124wfegd/eventhive/internal/api"
	"github.com/ds124wfegd/eventhive/internal/database"
	"github.com/ds124wfegd/eventhive/internal/navigation"
	"github.com/ds124wfegd/eventhive/internal/service"
	"github.com/ds124wfegd/eventhive/internal/session"
	"github.com/ds124wfegd/eventhive/internal/worker"
	"github.com/ds124wfegd/eventhive/pkg/logger"

	"github.com/sirupsen/logrus"
)

// App is one client process: a session over the configured store and the
// screens built on top of it.
type App struct {
	Config   *config.Config
	Log      *logrus.Logger
	Session  *session.Context
	Nav      *navigation.Recorder
	Client   *api.Client
	Account  service.AccountService
	Catalog  service.EventCatalog
	Bookings service.BookingEngine

	deps   service.Deps
	closer io.Closer
}

type options struct {
	log        *logrus.Logger
	store      database.Store
	notices    service.NoticeSink
	httpClient *http.Client
}

type Option func(*options)

func WithLogger(log *logrus.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithStore bypasses store.driver.
func WithStore(store database.Store) Option {
	return func(o *options) { o.store = store }
}

func WithNoticeSink(sink service.NoticeSink) Option {
	return func(o *options) { o.notices = sink }
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.New(cfg.Log, os.Stderr)
	}
	if o.notices == nil {
		o.notices = service.LogSink{Log: o.log}
	}

	// Initialize store
	store := o.store
	var closer io.Closer = io.NopCloser(nil)
	if store == nil {
		var err error
		store, closer, err = database.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	// Initialize session and API client
	sess := session.New(store, o.log)
	clientCfg := api.ConfigFrom(cfg.API)
	clientCfg.HTTPClient = o.httpClient
	client, err := api.NewClient(clientCfg, sess, o.log)
	if err != nil {
		closer.Close()
		return nil, err
	}

	// Initialize services
	nav := navigation.NewRecorder()
	deps := service.Deps{Session: sess, Navigator: nav, Notices: o.notices, Log: o.log}

	o.log.WithFields(logrus.Fields{
		"base_url": cfg.API.BaseURL,
		"store":    cfg.Store.Driver,
	}).Debug("Client initialized")

	return &App{
		Config:   cfg,
		Log:      o.log,
		Session:  sess,
		Nav:      nav,
		Client:   client,
		Account:  service.NewAccountService(client, deps),
		Catalog:  service.NewEventCatalog(client, deps),
		Bookings: service.NewBookingEngine(client, deps),
		deps:     deps,
		closer:   closer,
	}, nil
}

// Detail opens the screen of one event; from decides where Back leads.
func (a *App) Detail(eventID string, from navigation.Provenance) service.EventDetail {
	a.Nav.Push(navigation.RouteEventDetail, navigation.DetailParams(eventID, from))
	return service.NewEventDetail(a.Client, a.deps, eventID, from)
}

// Worker reconciles both feeds and any extra screens on the configured interval.
func (a *App) Worker(extra ...worker.Reconciler) *worker.ReconcileWorker {
	rs := append([]worker.Reconciler{a.Catalog, a.Bookings}, extra...)
	return worker.NewReconcileWorker(a.Config.Reconcile.Interval, a.Log, rs...)
}

func (a *App) Close() error {
	a.Catalog.Close()
	a.Bookings.Close()
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
