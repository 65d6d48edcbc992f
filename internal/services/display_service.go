package services

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"spendboard/internal/core"
	"spendboard/internal/log"
	"spendboard/internal/metrics"
	"spendboard/internal/render"
	"spendboard/internal/sources"
	"spendboard/internal/spending"
	"spendboard/internal/storage"
)

// DemoTotals are shown when no data source is configured.
var DemoTotals = spending.Totals{
	Day:   decimal.NewFromInt(42),
	Week:  decimal.NewFromInt(412),
	Month: decimal.NewFromInt(2847),
}

// AssetProvider supplies the optional artwork and the fonts of a render.
type AssetProvider interface {
	WeatherIcon(code int, isDay bool) image.Image
	Character() image.Image
	Fonts(sizes render.Sizes) *render.FontSet
}

// RenderRecorder stores the outcome of each render.
type RenderRecorder interface {
	RecordRender(ctx context.Context, rec storage.RenderRecord) (int64, error)
}

// Deps wires a DisplayService. Only Transactions is required.
type Deps struct {
	Transactions sources.TransactionLister
	Weather      sources.WeatherReader
	Assets       AssetProvider
	Recorder     RenderRecorder
	Metrics      metrics.Collector
	Policy       spending.Policy
	Location     *time.Location
	Layout       render.Layout
	// DefaultAccount is used when a request names none.
	DefaultAccount string
	Now            func() time.Time
}

// Request selects what to render. A zero Now means the current time.
type Request struct {
	Account string
	Now     time.Time
}

// Result is one generated display.
type Result struct {
	Account string
	Totals  spending.Totals
	Stats   spending.Stats
	Labels  spending.Labels
	Image   *image.Gray
	PNG     []byte
	Digest  string
}

// DisplayService runs the pipeline from raw transactions to PNG bytes.
type DisplayService struct {
	deps   Deps
	logger *log.Logger
}

func NewDisplayService(deps Deps) (*DisplayService, error) {
	if deps.Transactions == nil {
		return nil, errors.New("display service: transaction source is required")
	}
	if deps.Weather == nil {
		deps.Weather = sources.NoWeather{}
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NoOp{}
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Layout.Width == 0 || deps.Layout.Height == 0 {
		deps.Layout = render.DefaultLayout()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &DisplayService{
		deps:   deps,
		logger: log.WithComponent(log.ComponentDisplay),
	}, nil
}

// IsDataError reports whether err comes from malformed source records, which
// retrying cannot fix.
func IsDataError(err error) bool {
	var be *spending.BatchError
	return errors.As(err, &be) ||
		errors.Is(err, sources.ErrMalformed) ||
		errors.Is(err, core.ErrInvalidDate) ||
		errors.Is(err, core.ErrInvalidAmount)
}

// Generate lists, aggregates and renders the display for one account.
func (s *DisplayService) Generate(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	account := s.account(req.Account)
	now := req.Now
	if now.IsZero() {
		now = s.deps.Now()
	}
	bounds := spending.BoundsAt(now, s.deps.Location)

	res, err := s.generate(ctx, account, bounds)
	s.deps.Metrics.RecordRender(account, err == nil, time.Since(start))
	if err != nil {
		s.logger.ErrorContext(ctx, "Display generation failed",
			log.FieldAccount, account, log.FieldError, err)
		return nil, err
	}
	return res, nil
}

func (s *DisplayService) generate(ctx context.Context, account string, bounds spending.Bounds) (*Result, error) {
	txns, err := s.deps.Transactions.ListTransactions(ctx, account, bounds.MonthStart)
	if err != nil {
		return nil, fmt.Errorf("list transactions for %q: %w", account, err)
	}

	totals, stats, err := spending.AggregateWithStats(txns, bounds, s.deps.Policy)
	if err != nil {
		return nil, fmt.Errorf("aggregate %q: %w", account, err)
	}
	s.deps.Metrics.RecordAggregation(account, stats.Considered, stats.Excluded, stats.Stale)
	s.logger.DebugContext(ctx, "Transactions aggregated",
		log.FieldAccount, account,
		log.FieldConsidered, stats.Considered,
		log.FieldExcluded, stats.Excluded,
		log.FieldStale, stats.Stale)

	res, err := s.RenderTotals(ctx, account, totals)
	if err != nil {
		return nil, err
	}
	res.Stats = stats
	return res, nil
}

// RenderTotals renders precomputed totals, skipping the data source.
func (s *DisplayService) RenderTotals(ctx context.Context, account string, totals spending.Totals) (*Result, error) {
	account = s.account(account)
	labels := spending.FormatTotals(totals)
	scene := render.Scene{Labels: labels}

	if w := s.currentWeather(ctx); w != nil {
		scene.Weather = w
	}

	var fonts *render.FontSet
	if s.deps.Assets != nil {
		scene.Character = s.deps.Assets.Character()
		fonts = s.deps.Assets.Fonts(s.deps.Layout.Sizes)
	}
	if fonts == nil {
		fonts = render.BuiltinFontSet()
	}
	for _, r := range render.Roles {
		s.deps.Metrics.RecordFontTier(r.String(), fonts.Tier(r).String())
	}

	img := render.NewCompositor(s.deps.Layout, fonts).Render(scene)
	data, digest, err := render.EncodeBytes(img)
	if err != nil {
		return nil, fmt.Errorf("render %q: %w", account, err)
	}

	if s.deps.Recorder != nil {
		_, err := s.deps.Recorder.RecordRender(ctx, storage.RenderRecord{
			Account:    account,
			RenderedAt: s.deps.Now(),
			Day:        totals.Day,
			Week:       totals.Week,
			Month:      totals.Month,
			Digest:     digest,
		})
		if err != nil {
			s.logger.WarnContext(ctx, "Render history not recorded",
				log.FieldAccount, account, log.FieldError, err)
		}
	}

	fields := log.NewFields().
		WithAccount(account).
		WithTotals(labels.Day, labels.Week, labels.Month)
	fields[log.FieldDigest] = digest
	fields[log.FieldBytes] = len(data)
	s.logger.InfoContext(ctx, "Display rendered", fields.ToSlice()...)

	return &Result{
		Account: account,
		Totals:  totals,
		Labels:  labels,
		Image:   img,
		PNG:     data,
		Digest:  digest,
	}, nil
}

// GenerateTo generates the display and writes the PNG to w.
func (s *DisplayService) GenerateTo(ctx context.Context, req Request, w io.Writer) (*Result, error) {
	res, err := s.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(res.PNG); err != nil {
		return nil, fmt.Errorf("write display: %w", err)
	}
	return res, nil
}

// currentWeather is best-effort: failures drop the overlay.
func (s *DisplayService) currentWeather(ctx context.Context) *render.WeatherOverlay {
	w, err := s.deps.Weather.CurrentWeather(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Weather unavailable, omitting overlay", log.FieldError, err)
		return nil
	}
	if w == nil {
		return nil
	}
	overlay := &render.WeatherOverlay{Temperature: w.Temperature}
	if s.deps.Assets != nil {
		overlay.Icon = s.deps.Assets.WeatherIcon(w.Code, w.IsDay)
	}
	return overlay
}

func (s *DisplayService) account(a string) string {
	if a != "" {
		return a
	}
	if s.deps.DefaultAccount != "" {
		return s.deps.DefaultAccount
	}
	return "default"
}
