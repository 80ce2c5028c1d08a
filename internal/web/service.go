// Package web serves the browser dashboard and its JSON API.
package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/kirana/internal/config"
	"github.com/theirongolddev/kirana/internal/forecast"
	"github.com/theirongolddev/kirana/internal/model"
	"github.com/theirongolddev/kirana/internal/pipeline"
	"github.com/theirongolddev/kirana/internal/source"
)

// Config controls the server runtime behavior.
type Config struct {
	DataFile       string
	Schema         source.Schema
	Days           int
	AsOf           string
	TopN           int
	Stock          config.StockLevels
	Thresholds     forecast.Thresholds
	Horizon        int
	MinRecords     int
	UseCache       bool
	Interval       time.Duration
	Addr           string
	AllowedOrigins []string
	EventsBuffer   int
}

// Snapshot is a compact state of the sales file for status and event payloads.
type Snapshot struct {
	At       time.Time       `json:"at"`
	Sales    int             `json:"sales"`
	Products int             `json:"products"`
	Units    decimal.Decimal `json:"units"`
	LastSale string          `json:"last_sale,omitempty"`
	OrderNow int             `json:"order_now"`
	Low      int             `json:"low"`
}

// Delta captures snapshot changes between polls.
type Delta struct {
	Sales    int             `json:"sales"`
	Products int             `json:"products"`
	Units    decimal.Decimal `json:"units"`
}

func (d Delta) isZero() bool {
	return d.Sales == 0 && d.Products == 0 && d.Units.IsZero()
}

// Event is emitted whenever the sales snapshot changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /api/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	DataFile        string    `json:"data_file"`
	Days            int       `json:"days"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service polls the sales file and serves the dashboard.
type Service struct {
	cfg Config

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   error
	sales       []model.Sale
	hasSnapshot bool
	snapshot    Snapshot
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a service with defaults filled in.
func New(cfg Config) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 10 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8501"
	}
	if cfg.TopN <= 0 {
		cfg.TopN = 5
	}
	if cfg.Horizon <= 0 {
		cfg.Horizon = forecast.DefaultHorizon
	}

	return &Service{
		cfg:       cfg,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the HTTP handler: the gin router behind CORS.
func (s *Service) Handler() http.Handler {
	router := s.router()
	if len(s.cfg.AllowedOrigins) == 0 {
		return router
	}
	return cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{requestIDHeader},
	}).Handler(router)
}

// Run serves HTTP and polls the sales file until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	log.Info().Str("addr", s.cfg.Addr).Str("file", s.cfg.DataFile).Msg("dashboard listening")

	// Seed the first snapshot so the API has data immediately.
	s.pollOnce()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			log.Info().Msg("dashboard shutting down")
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce()
		case err := <-errCh:
			return fmt.Errorf("dashboard http server: %w", err)
		}
	}
}

// pollOnce reloads the sales file and publishes an event when the totals
// change. A failed load keeps the previous sales.
func (s *Service) pollOnce() {
	start := time.Now()
	sales, err := s.loadSales()
	now := time.Now()
	if err != nil {
		s.mu.Lock()
		s.lastError = err
		s.lastPollAt = now
		s.pollCount++
		s.mu.Unlock()
		log.Warn().Err(err).Str("file", s.cfg.DataFile).Msg("reload failed")
		return
	}

	snap := s.snapshotOf(sales, now)

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.sales = sales
	s.hasSnapshot = true
	s.snapshot = snap
	s.lastPollAt = now
	s.pollCount++
	s.lastError = nil

	if !prevExists {
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: "snapshot", Timestamp: now, Snapshot: snap}
		publish = true
	} else if delta := diffSnapshots(prev, snap); !delta.isZero() {
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: "sales_delta", Timestamp: now, Snapshot: snap, Delta: delta}
		publish = true
	}
	s.mu.Unlock()

	if publish {
		s.publishEvent(ev)
	}
	log.Debug().Dur("took", time.Since(start)).Int("sales", len(sales)).Msg("poll complete")
}

func (s *Service) loadSales() ([]model.Sale, error) {
	if s.cfg.UseCache {
		result, err := pipeline.LoadPreferCache(s.cfg.DataFile, pipeline.CachePath(), s.cfg.Schema, nil)
		if err != nil {
			return nil, err
		}
		return result.Sales, nil
	}
	result, err := pipeline.Load(s.cfg.DataFile, s.cfg.Schema, nil)
	if err != nil {
		return nil, err
	}
	return result.Sales, nil
}

// snapshotOf summarises the configured window. Alert counts are left at zero
// when the window or as-of setting is invalid; the API reports those.
func (s *Service) snapshotOf(sales []model.Sale, at time.Time) Snapshot {
	snap := Snapshot{At: at, Sales: len(sales), Products: len(pipeline.Products(sales)), Units: decimal.Zero}
	for _, sale := range sales {
		snap.Units = snap.Units.Add(sale.Quantity)
	}
	if latest := pipeline.LatestDate(sales); !latest.IsZero() {
		snap.LastSale = latest.Format(dateLayout)
	}

	w, err := s.window(sales, s.cfg.Days, at)
	if err != nil {
		return snap
	}
	summaries, err := pipeline.AggregateWindow(sales, w.until, s.cfg.Days)
	if err != nil {
		return snap
	}
	projections, err := forecast.ProjectAll(summaries, s.cfg.Stock.For, w.today, s.cfg.Thresholds)
	if err != nil {
		return snap
	}
	for _, p := range projections {
		switch p.Status {
		case model.StatusOrderNow:
			snap.OrderNow++
		case model.StatusLow:
			snap.Low++
		}
	}
	return snap
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Sales:    curr.Sales - prev.Sales,
		Products: curr.Products - prev.Products,
		Units:    curr.Units.Sub(prev.Units),
	}
}

// currentSales returns the last successfully loaded sales. Before the first
// successful load it returns the load error.
func (s *Service) currentSales() ([]model.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasSnapshot {
		if s.lastError != nil {
			return nil, s.lastError
		}
		return nil, errNotLoaded
	}
	return s.sales, nil
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		DataFile:        s.cfg.DataFile,
		Days:            s.cfg.Days,
		Summary:         s.snapshot,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
	if s.lastError != nil {
		st.LastError = s.lastError.Error()
	}
	return st
}

func (s *Service) eventsCopy() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	return events
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

// stream sends the current snapshot, then every published event, until the
// client goes away.
func (s *Service) stream(c *gin.Context) {
	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	c.Header("Cache-Control", "no-cache")
	c.SSEvent("snapshot", Event{Type: "snapshot", Timestamp: time.Now(), Snapshot: s.status().Summary})
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(_ io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev := <-ch:
			c.SSEvent(ev.Type, ev)
			return true
		}
	})
}
