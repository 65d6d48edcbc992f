// Package assets loads the optional artwork and font files of the display
// from a directory on disk.
package assets

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"spendboard/internal/cache"
	"spendboard/internal/log"
	"spendboard/internal/render"
)

const (
	characterFile = "character.png"
	weatherDir    = "weather"
)

// Preferred family file names, relative to the fonts directory.
var preferredFonts = map[render.Weight]string{
	render.Regular:      "CormorantGaramond-Regular.ttf",
	render.MediumWeight: "CormorantGaramond-Medium.ttf",
	render.SemiBold:     "CormorantGaramond-SemiBold.ttf",
}

// SystemSerifFonts are tried in order when the preferred family is missing.
var SystemSerifFonts = []string{
	"/usr/share/fonts/truetype/liberation/LiberationSerif-Regular.ttf",
	"/usr/share/fonts/liberation-serif/LiberationSerif-Regular.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSerif.ttf",
}

// Config locates the assets.
type Config struct {
	Dir      string
	FontsDir string
	// TTL bounds how long a file is served from memory after it was read.
	TTL        time.Duration
	MaxEntries int
	// Icons maps weather codes to files under Dir/weather. Nil means
	// render.DefaultIconTable.
	Icons *render.IconTable
}

// Store serves decoded images and raw font bytes. It is safe for
// concurrent use; decoded images must be treated as read-only.
type Store struct {
	cfg    Config
	images *cache.LRUCache[image.Image]
	files  *cache.LRUCache[[]byte]
	icons  render.IconTable
	logger *log.Logger
}

// New creates a store. Zero TTL and MaxEntries get defaults.
func New(cfg Config) *Store {
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 32
	}
	icons := render.DefaultIconTable()
	if cfg.Icons != nil {
		icons = *cfg.Icons
	}
	return &Store{
		cfg:    cfg,
		images: cache.NewLRUCache[image.Image](cfg.MaxEntries, cfg.TTL),
		files:  cache.NewLRUCache[[]byte](cfg.MaxEntries, cfg.TTL),
		icons:  icons,
		logger: log.WithComponent(log.ComponentAssets),
	}
}

// RegisterCaches hands the store's caches to a cleanup manager.
func (s *Store) RegisterCaches(m *cache.Manager) {
	m.Register(s.images)
	m.Register(s.files)
}

// WeatherIcon returns the icon for a reading, or nil when it is missing.
func (s *Store) WeatherIcon(code int, isDay bool) image.Image {
	return s.image(filepath.Join(s.cfg.Dir, weatherDir, s.icons.Lookup(code, isDay)))
}

// Character returns the character artwork, or nil when it is missing.
func (s *Store) Character() image.Image {
	return s.image(filepath.Join(s.cfg.Dir, characterFile))
}

func (s *Store) image(path string) image.Image {
	img, err := s.images.GetOrLoad(path, func() (image.Image, error) {
		return decodePNG(path)
	})
	if err != nil {
		s.logger.Warn("Optional asset unavailable", log.FieldAsset, path, log.FieldError, err)
		return nil
	}
	return img
}

func decodePNG(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// FontSources lists the preferred family in FontsDir and the system serifs.
func (s *Store) FontSources() render.FontSources {
	preferred := make(map[render.Weight]string, len(preferredFonts))
	for w, name := range preferredFonts {
		preferred[w] = filepath.Join(s.cfg.FontsDir, name)
	}
	return render.FontSources{
		Preferred: preferred,
		System:    SystemSerifFonts,
	}
}

// ReadFont is a render.ReadFileFunc backed by the file cache.
func (s *Store) ReadFont(path string) ([]byte, error) {
	return s.files.GetOrLoad(path, func() ([]byte, error) {
		return os.ReadFile(path)
	})
}

// Fonts resolves a fresh font set for one render.
func (s *Store) Fonts(sizes render.Sizes) *render.FontSet {
	return render.ResolveFonts(s.FontSources(), sizes, s.ReadFont)
}
