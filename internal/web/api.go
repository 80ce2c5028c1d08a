package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/kirana/internal/forecast"
	"github.com/theirongolddev/kirana/internal/model"
	"github.com/theirongolddev/kirana/internal/pipeline"
)

const (
	dateLayout      = "2006-01-02"
	requestIDHeader = "X-Request-ID"
	maxTrendWeeks   = 104
	maxWindowDays   = 3660
	maxHorizonDays  = 365
)

var (
	errNotLoaded      = errors.New("sales have not been loaded yet")
	errUnknownProduct = errors.New("unknown product")
	errReloadFailed   = errors.New("reload failed")
)

func (s *Service) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/", s.handleIndex)
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok\n") })

	api := r.Group("/api")
	api.GET("/status", func(c *gin.Context) { c.JSON(http.StatusOK, s.status()) })
	api.GET("/events", func(c *gin.Context) { c.JSON(http.StatusOK, s.eventsCopy()) })
	api.GET("/stream", s.stream)
	api.POST("/reload", s.handleReload)
	api.GET("/summary", s.handleSummary)
	api.GET("/top", s.handleTop)
	api.GET("/weekly", s.handleWeekly)
	api.GET("/daily", s.handleDaily)
	api.GET("/restock", s.handleRestock)
	api.GET("/projection/:product", s.handleProjection)
	api.GET("/forecast/:product", s.handleForecast)
	return r
}

// requestLogger tags each request with an ID and logs it when it completes.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		c.Next()

		ev := log.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			ev = log.Error()
		}
		ev.Str("id", id).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}

// errorStatus maps an error onto the HTTP status reported to the client.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, errUnknownProduct):
		return http.StatusNotFound
	case errors.Is(err, forecast.ErrConfig), errors.Is(err, forecast.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, forecast.ErrInsufficientHistory):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errNotLoaded):
		return http.StatusServiceUnavailable
	case errors.Is(err, errReloadFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// window is the day range a request covers.
type window struct {
	since, until, today time.Time
	days                int
}

func (s *Service) window(sales []model.Sale, days int, now time.Time) (window, error) {
	asOf, err := pipeline.ResolveAsOf(s.cfg.AsOf, sales, now)
	if err != nil {
		return window{}, err
	}
	since, until, err := pipeline.WindowBounds(asOf, days)
	if err != nil {
		return window{}, err
	}
	return window{since: since, until: until, today: pipeline.StartOfDay(now), days: days}, nil
}

// requestWindow reads the optional days query parameter.
func (s *Service) requestWindow(c *gin.Context, sales []model.Sale) (window, error) {
	days, err := intQuery(c, "days", s.cfg.Days)
	if err != nil {
		return window{}, err
	}
	if days <= 0 {
		return window{}, fmt.Errorf("days: %w (got %d)", forecast.ErrInvalidWindow, days)
	}
	if days > maxWindowDays {
		return window{}, fmt.Errorf("%w: days must be at most %d", forecast.ErrInvalidInput, maxWindowDays)
	}
	return s.window(sales, days, time.Now())
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a whole number", forecast.ErrInvalidInput, name, v)
	}
	return n, nil
}

func dateQuery(c *gin.Context, name string) (time.Time, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(dateLayout, v, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s=%q must be YYYY-MM-DD", forecast.ErrInvalidInput, name, v)
	}
	return t, nil
}

// stockFor returns the stock lookup, with the stock query parameter
// overriding every product.
func (s *Service) stockFor(c *gin.Context) (func(string) decimal.Decimal, error) {
	v := strings.TrimSpace(c.Query("stock"))
	if v == "" {
		return s.cfg.Stock.For, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, fmt.Errorf("%w: stock=%q is not a number", forecast.ErrInvalidInput, v)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("stock: %w", forecast.ErrNegativeStock)
	}
	return func(string) decimal.Decimal { return d }, nil
}

func findProduct(sales []model.Sale, name string) (string, error) {
	product, ok := pipeline.FindProduct(sales, name)
	if !ok {
		return "", fmt.Errorf("%w: %q", errUnknownProduct, name)
	}
	return product, nil
}

func (s *Service) handleReload(c *gin.Context) {
	s.pollOnce()
	st := s.status()
	if st.LastError != "" {
		respondError(c, fmt.Errorf("%w: %s", errReloadFailed, st.LastError))
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Service) handleSummary(c *gin.Context) {
	sales, err := s.currentSales()
	if err != nil {
		respondError(c, err)
		return
	}
	w, err := s.requestWindow(c, sales)
	if err != nil {
		respondError(c, err)
		return
	}

	sales = pipeline.FilterByProduct(sales, c.Query("product"))
	stats := pipeline.Aggregate(sales, w.since, w.until)
	top := pipeline.TopProducts(sales, w.since, w.until, s.cfg.TopN)
	weeks := pipeline.AggregateWeeks(sales, w.until.AddDate(0, 0, -(8*7-1)), w.until)

	c.JSON(http.StatusOK, summaryResponse{
		Window:       newWindowJSON(w),
		DataFile:     s.cfg.DataFile,
		Products:     len(pipeline.Products(sales)),
		Transactions: stats.Transactions,
		Units:        stats.TotalQuantity,
		UnitsPerDay:  stats.QuantityPerDay.Round(2),
		LastSale:     formatDate(pipeline.LatestDate(sales)),
		LastUpdate:   s.status().LastPollAt,
		Top:          newTopJSON(top),
		Weekly:       newWeeklyJSON(weeks),
	})
}

func (s *Service) handleTop(c *gin.Context) {
	sales, err := s.currentSales()
	if err != nil {
		respondError(c, err)
		return
	}
	w, err := s.requestWindow(c, sales)
	if err != nil {
		respondError(c, err)
		return
	}
	from, err := dateQuery(c, "from")
	if err != nil {
		respondError(c, err)
		return
	}
	to, err := dateQuery(c, "to")
	if err != nil {
		respondError(c, err)
		return
	}
	n, err := intQuery(c, "n", s.cfg.TopN)
	if err != nil {
		respondError(c, err)
		return
	}

	// An explicit range replaces the window.
	if !from.IsZero() || !to.IsZero() {
		w.since, w.until = from, to
		if !from.IsZero() && !to.IsZero() && from.After(to) {
			respondError(c, fmt.Errorf("%w: from is after to", forecast.ErrInvalidInput))
			return
		}
	}

	top := pipeline.TopProducts(pipeline.FilterByProduct(sales, c.Query("product")), w.since, w.until, n)
	c.JSON(http.StatusOK, gin.H{"window": newWindowJSON(w), "products": newTopJSON(top)})
}

func (s *Service) handleWeekly(c *gin.Context) {
	sales, err := s.currentSales()
	if err != nil {
		respondError(c, err)
		return
	}
	w, err := s.window(sales, 1, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	weeks, err := intQuery(c, "weeks", 12)
	if err != nil {
		respondError(c, err)
		return
	}
	if weeks <= 0 || weeks > maxTrendWeeks {
		respondError(c, fmt.Errorf("%w: weeks must be between 1 and %d", forecast.ErrInvalidInput, maxTrendWeeks))
		return
	}

	filtered := pipeline.FilterByProduct(sales, c.Query("product"))
	data := pipeline.AggregateWeeks(filtered, w.until.AddDate(0, 0, -(weeks*7-1)), w.until)
	c.JSON(http.StatusOK, gin.H{"weeks": newWeeklyJSON(data)})
}

func (s *Service) handleDaily(c *gin.Context) {
	sales, err := s.currentSales()
	if err != nil {
		respondError(c, err)
		return
	}
	w, err := s.requestWindow(c, sales)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{"window": newWindowJSON(w)}
	if name := c.Query("product"); name != "" {
		product, err := findProduct(sales, name)
		if err != nil {
			respondError(c, err)
			return
		}
		sales = pipeline.FilterExact(sales, product)
		resp["product"] = product
	}
	resp["days"] = newDailyJSON(pipeline.AggregateDays(sales, w.since, w.until))
	c.JSON(http.StatusOK, resp)
}

func (s *Service) handleRestock(c *gin.Context) {
	sales, err := s.currentSales()
	if err != nil {
		respondError(c, err)
		return
	}
	w, err := s.requestWindow(c, sales)
	if err != nil {
		respondError(c, err)
		return
	}
	stockFor, err := s.stockFor(c)
	if err != nil {
		respondError(c, err)
		return
	}

	summaries, err := pipeline.AggregateWindow(pipeline.FilterByProduct(sales, c.Query("product")), w.until, w.days)
	if err != nil {
		respondError(c, err)
		return
	}
	projections, err := forecast.ProjectAll(summaries, stockFor, w.today, s.cfg.Thresholds)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]projectionJSON, 0, len(projections))
	for _, p := range projections {
		out = append(out, newProjectionJSON(p, summaries[p.Product]))
	}
	c.JSON(http.StatusOK, gin.H{"window": newWindowJSON(w), "products": out})
}

func (s *Service) handleProjection(c *gin.Context) {
	sales, err := s.currentSales()
	if err != nil {
		respondError(c, err)
		return
	}
	product, err := findProduct(sales, c.Param("product"))
	if err != nil {
		respondError(c, err)
		return
	}
	w, err := s.requestWindow(c, sales)
	if err != nil {
		respondError(c, err)
		return
	}
	stockFor, err := s.stockFor(c)
	if err != nil {
		respondError(c, err)
		return
	}

	summaries, err := pipeline.AggregateWindow(pipeline.FilterExact(sales, product), w.until, w.days)
	if err != nil {
		respondError(c, err)
		return
	}
	ps := summaries[product]
	p, err := forecast.Project(ps, stockFor(product), w.today, s.cfg.Thresholds)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newProjectionJSON(p, ps))
}

func (s *Service) handleForecast(c *gin.Context) {
	sales, err := s.currentSales()
	if err != nil {
		respondError(c, err)
		return
	}
	product, err := findProduct(sales, c.Param("product"))
	if err != nil {
		respondError(c, err)
		return
	}
	horizon, err := intQuery(c, "horizon", s.cfg.Horizon)
	if err != nil {
		respondError(c, err)
		return
	}
	if horizon <= 0 || horizon > maxHorizonDays {
		respondError(c, fmt.Errorf("%w: horizon must be between 1 and %d days", forecast.ErrInvalidInput, maxHorizonDays))
		return
	}

	fc, err := forecast.LinearForecast(sales, product, horizon, s.cfg.MinRecords)
	if err != nil {
		respondError(c, err)
		return
	}
	stock := s.cfg.Stock.For(product)
	c.JSON(http.StatusOK, newForecastJSON(fc, stock))
}
