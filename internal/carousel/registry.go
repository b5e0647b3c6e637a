package carousel

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/celerix-dev/celerix-cms/pkg/schema"
	"github.com/celerix-dev/celerix-cms/pkg/sdk"
)

// Names of the carousels the site renders.
const (
	Hero         = "hero"
	Testimonials = "testimonials"
	Portfolio    = "portfolio"
)

// DefaultConfigs returns the stock timing of the site carousels.
func DefaultConfigs() map[string]Config {
	return map[string]Config{
		Hero:         {Interval: 5000 * time.Millisecond, Lock: DefaultLock, AutoPlay: true},
		Testimonials: {Interval: 4000 * time.Millisecond, Lock: DefaultLock, AutoPlay: true},
		Portfolio:    {Interval: 4500 * time.Millisecond, Lock: DefaultLock, AutoPlay: true},
	}
}

// Slide content is stored as one document per carousel in the carousels
// collection, keyed by carousel name:
//
//	{"slides": [{...}, {...}], "intervalMs": 4000}
const (
	slidesField   = "slides"
	intervalField = "intervalMs"
)

// Registry holds the named carousels of the site.
type Registry struct {
	store   sdk.DocReader
	configs map[string]Config
	opts    []Option
	logger  *slog.Logger

	mu        sync.RWMutex
	carousels map[string]*Carousel[schema.Document]

	cancel func()
	done   chan struct{}
}

// NewRegistry returns an empty registry. configs lists the carousels to
// build and their default timing.
func NewRegistry(store sdk.DocReader, configs map[string]Config, logger *slog.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		store:     store,
		configs:   configs,
		opts:      opts,
		logger:    logger,
		carousels: make(map[string]*Carousel[schema.Document]),
	}
}

// Load builds every configured carousel from the store. Carousels with no
// document or no slides are skipped with a warning.
func (r *Registry) Load() error {
	for _, name := range sortedNames(r.configs) {
		doc, err := r.store.Get(string(schema.CollectionCarousels), name)
		if errors.Is(err, schema.ErrNotFound) {
			r.logger.Warn("carousel.missing", slog.String("name", name))
			continue
		}
		if err != nil {
			return err
		}
		r.apply(name, doc)
	}
	return nil
}

// Watch keeps the registry in sync with the carousels collection until
// Close. Only configured names are tracked.
func (r *Registry) Watch(w sdk.Watcher) {
	ch, cancel := w.Subscribe(string(schema.CollectionCarousels))
	r.cancel = cancel
	r.done = make(chan struct{})
	go func() {
		defer close(r.done)
		for change := range ch {
			if _, ok := r.configs[change.ID]; !ok {
				continue
			}
			if change.Deleted {
				r.remove(change.ID)
				continue
			}
			r.apply(change.ID, change.Doc)
		}
	}()
}

func (r *Registry) apply(name string, doc schema.Document) {
	slides := Slides(doc)
	if len(slides) == 0 {
		r.logger.Warn("carousel.empty", slog.String("name", name))
		r.remove(name)
		return
	}
	cfg := r.configs[name]
	if ms, ok := doc[intervalField].(float64); ok && ms > 0 {
		cfg.Interval = time.Duration(ms) * time.Millisecond
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.carousels[name]; ok {
		if err := c.Replace(slides); err != nil {
			r.logger.Warn("carousel.replace", slog.String("name", name), slog.Any("error", err))
			return
		}
		if err := c.SetInterval(cfg.Interval); err != nil {
			r.logger.Warn("carousel.interval", slog.String("name", name), slog.Any("error", err))
		}
		return
	}

	logger := r.logger.With(slog.String("carousel", name))
	opts := append([]Option{WithOnChange(func(st State) {
		logger.Debug("carousel.slide", slog.Int("index", st.Index))
	})}, r.opts...)
	c, err := New(slides, cfg, opts...)
	if err != nil {
		r.logger.Warn("carousel.build", slog.String("name", name), slog.Any("error", err))
		return
	}
	r.carousels[name] = c
}

func (r *Registry) remove(name string) {
	r.mu.Lock()
	c, ok := r.carousels[name]
	delete(r.carousels, name)
	r.mu.Unlock()
	if ok {
		c.Close()
	}
}

// Get returns the named carousel.
func (r *Registry) Get(name string) (*Carousel[schema.Document], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.carousels[name]
	return c, ok
}

// Names returns the loaded carousel names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedNames(r.carousels)
}

// Close stops watching and tears down every carousel.
func (r *Registry) Close() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
	r.mu.Lock()
	carousels := r.carousels
	r.carousels = make(map[string]*Carousel[schema.Document])
	r.mu.Unlock()
	for _, c := range carousels {
		c.Close()
	}
}

// Slides extracts the slide list of a carousel document. Non-object entries
// are wrapped as {"value": v}.
func Slides(doc schema.Document) []schema.Document {
	raw, _ := doc[slidesField].([]any)
	slides := make([]schema.Document, 0, len(raw))
	for _, v := range raw {
		switch s := v.(type) {
		case map[string]any:
			slides = append(slides, schema.Document(s))
		case schema.Document:
			slides = append(slides, s)
		default:
			slides = append(slides, schema.Document{"value": v})
		}
	}
	return slides
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
