package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/MeKo-Tech/noteclean/internal/utils"
)

// Stats counts cache activity since the gateway was created.
type Stats struct {
	Constructions int `json:"constructions"`
	InitFailures  int `json:"init_failures"`
	Evictions     int `json:"evictions"`
	Hits          int `json:"hits"`
}

// Observer receives gateway events, typically to feed metrics.
type Observer interface {
	EngineConstructed(languages string, d time.Duration, err error)
	Extraction(status string, d time.Duration)
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithAllowList replaces the default language allow-list.
func WithAllowList(al *AllowList) Option {
	return func(g *Gateway) { g.allowed = al }
}

// WithObserver attaches an Observer.
func WithObserver(o Observer) Option {
	return func(g *Gateway) { g.observer = o }
}

// WithLogger sets the logger; slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// Gateway is the single entry point for text extraction. It holds at most
// one engine, built for one language set. Requests for another set close the
// cached engine before building a new one. The mutex is held for the whole
// extraction, so construction and recognition never overlap.
type Gateway struct {
	factory  EngineFactory
	allowed  *AllowList
	observer Observer
	logger   *slog.Logger

	mu     sync.Mutex
	engine Engine
	key    string
	langs  []string
	stats  Stats
}

// NewGateway creates a gateway that builds engines through factory.
func NewGateway(factory EngineFactory, opts ...Option) *Gateway {
	g := &Gateway{factory: factory}
	for _, opt := range opts {
		opt(g)
	}
	if g.allowed == nil {
		g.allowed, _ = NewAllowList(DefaultLanguages)
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g
}

// Extract recognizes the text in img using the given languages. It never
// returns a Go error; failures are reported in Result.Err.
func (g *Gateway) Extract(ctx context.Context, img image.Image, languages []string) Result {
	start := time.Now()
	res := g.extract(ctx, img, languages)

	status := "ok"
	if !res.OK() {
		status = string(res.Err.Stage)
		g.logger.Warn("ocr extraction failed",
			"stage", res.Err.Stage, "languages", strings.Join(languages, ","), "error", res.Err.Reason)
	}
	if g.observer != nil {
		g.observer.Extraction(status, time.Since(start))
	}
	return res
}

func (g *Gateway) extract(ctx context.Context, img image.Image, languages []string) Result {
	langs, err := g.allowed.Resolve(languages)
	if err != nil {
		return failed(StageLanguages, languages, err)
	}
	if img == nil {
		return failed(StageRecognize, langs, errors.New("input image is nil"))
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	engine, err := g.acquire(ctx, langs)
	if err != nil {
		if ctx.Err() != nil {
			return failed(StageCanceled, langs, ctx.Err())
		}
		return failed(StageEngineInit, langs, err)
	}

	rgb, err := truecolor(img)
	if err != nil {
		return failed(StageRecognize, langs, err)
	}

	paragraphs, err := recognize(ctx, engine, rgb)
	if err != nil {
		if ctx.Err() != nil {
			return failed(StageCanceled, langs, ctx.Err())
		}
		return failed(StageRecognize, langs, err)
	}

	text := strings.TrimSpace(strings.Join(paragraphs, "\n"))
	return Result{Text: norm.NFC.String(text), Languages: langs}
}

// acquire returns the cached engine for langs, replacing it if the key
// differs. Callers hold g.mu.
func (g *Gateway) acquire(ctx context.Context, langs []string) (Engine, error) {
	key := cacheKey(langs)
	if g.engine != nil && g.key == key {
		g.stats.Hits++
		return g.engine, nil
	}

	if g.engine != nil {
		g.logger.Info("evicting ocr engine", "languages", g.key, "requested", key)
		g.dropLocked()
		g.stats.Evictions++
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.logger.Info("initializing ocr engine", "languages", key)
	start := time.Now()
	engine, err := construct(ctx, g.factory, langs)
	if g.observer != nil {
		g.observer.EngineConstructed(key, time.Since(start), err)
	}
	if err != nil {
		g.stats.InitFailures++
		return nil, &EngineInitError{Languages: langs, Err: err}
	}

	g.engine, g.key, g.langs = engine, key, langs
	g.stats.Constructions++
	g.logger.Info("ocr engine ready", "languages", key, "duration", time.Since(start))
	return engine, nil
}

func construct(ctx context.Context, f EngineFactory, langs []string) (engine Engine, err error) {
	defer func() {
		if r := recover(); r != nil {
			engine, err = nil, fmt.Errorf("engine construction panicked: %v", r)
		}
	}()
	engine, err = f.NewEngine(ctx, langs)
	if err == nil && engine == nil {
		err = errors.New("factory returned no engine")
	}
	return engine, err
}

func recognize(ctx context.Context, e Engine, img image.Image) (paragraphs []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			paragraphs, err = nil, fmt.Errorf("engine panicked: %v", r)
		}
	}()
	return e.Recognize(ctx, img)
}

// truecolor drops alpha and expands gray so the engine always sees RGB.
func truecolor(img image.Image) (image.Image, error) {
	arr, err := utils.ToNumeric(img)
	if err != nil {
		return nil, err
	}
	rgb, err := utils.ToRGB(arr)
	if err != nil {
		return nil, err
	}
	return utils.FromNumeric(rgb)
}

func (g *Gateway) dropLocked() {
	if err := g.engine.Close(); err != nil {
		g.logger.Warn("closing ocr engine", "languages", g.key, "error", err)
	}
	g.engine, g.key, g.langs = nil, "", nil
}

// Stats returns a snapshot of the cache counters.
func (g *Gateway) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stats
}

// CachedLanguages returns the language set of the cached engine, or nil.
func (g *Gateway) CachedLanguages() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.engine == nil {
		return nil
	}
	out := make([]string, len(g.langs))
	copy(out, g.langs)
	return out
}

// Close releases the cached engine.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.engine == nil {
		return nil
	}
	err := g.engine.Close()
	g.engine, g.key, g.langs = nil, "", nil
	return err
}
