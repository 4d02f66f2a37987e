package station

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/bluele/gcache"

	"github.com/mini-rodalies-3d/ticketwatch/internal/provider"
)

// ErrStationNotFound is returned when a name is unknown to the cache, the
// provider's station table and the built-in fallback table.
var ErrStationNotFound = errors.New("station code not found")

// defaultMemorySize comfortably holds the provider's full table (~3,300 stations)
const defaultMemorySize = 4096

// Fetcher retrieves a provider resource
type Fetcher interface {
	Get(ctx context.Context, url string, headers http.Header) ([]byte, error)
}

// Options configures a Directory
type Options struct {
	TableURL   string
	Referer    string
	CachePath  string
	MaxAge     time.Duration
	MemorySize int
}

// Directory resolves station display names to provider station codes
type Directory struct {
	fetcher  Fetcher
	tableURL string
	referer  string
	cache    *fileCache
	memory   gcache.Cache
}

// NewDirectory creates a station directory backed by the cache file at opts.CachePath
func NewDirectory(fetcher Fetcher, opts Options) *Directory {
	size := opts.MemorySize
	if size <= 0 {
		size = defaultMemorySize
	}
	return &Directory{
		fetcher:  fetcher,
		tableURL: opts.TableURL,
		referer:  opts.Referer,
		cache:    &fileCache{path: opts.CachePath, maxAge: opts.MaxAge},
		memory:   gcache.New(size).LRU().Build(),
	}
}

// Resolve returns the station code for name.
//
// Lookup order: memory, cache file, provider station table (persisted on
// success), then the built-in fallback table. A stale cache file is only
// consulted when the station table cannot be fetched.
func (d *Directory) Resolve(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrStationNotFound)
	}

	if code, ok := d.lookupMemory(name); ok {
		return code, nil
	}

	cached, stale, err := d.cache.load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: station cache unreadable, ignoring: %v", err)
	}
	if err == nil && !stale {
		d.remember(cached)
		if code, ok := cached[name]; ok {
			return code, nil
		}
	}

	fresh, err := d.refresh(ctx)
	if err == nil {
		if code, ok := fresh[name]; ok {
			return code, nil
		}
	} else {
		log.Printf("Station: failed to fetch station table: %v", err)
		if stale {
			log.Println("Station: using stale station cache")
			d.remember(cached)
			if code, ok := cached[name]; ok {
				return code, nil
			}
		}
	}

	if code, ok := FallbackCode(name); ok {
		log.Printf("Station: using built-in code %s for %s", code, name)
		d.memory.Set(name, code)
		return code, nil
	}

	return "", fmt.Errorf("%w: %s", ErrStationNotFound, name)
}

// refresh downloads and parses the full station table, persisting it best-effort
func (d *Directory) refresh(ctx context.Context) (map[string]string, error) {
	log.Println("Station: fetching station table from provider...")

	body, err := d.fetcher.Get(ctx, d.tableURL, provider.ResourceHeaders(d.referer))
	if err != nil {
		return nil, err
	}

	codes, err := ParseTable(string(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse station table: %w", err)
	}

	if err := d.cache.save(codes); err != nil {
		log.Printf("Warning: failed to write station cache %s: %v", d.cache.path, err)
	} else {
		log.Printf("Station: cached %d station codes to %s", len(codes), d.cache.path)
	}

	d.remember(codes)
	return codes, nil
}

func (d *Directory) lookupMemory(name string) (string, bool) {
	v, err := d.memory.Get(name)
	if err != nil {
		return "", false
	}
	code, ok := v.(string)
	return code, ok
}

func (d *Directory) remember(codes map[string]string) {
	for name, code := range codes {
		d.memory.Set(name, code)
	}
}
