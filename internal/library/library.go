package library

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/muesli/cache2go"
	"github.com/samber/lo"

	"github.com/dgallion1/docsieve/internal/chunker"
	"github.com/dgallion1/docsieve/internal/doctree"
	"github.com/dgallion1/docsieve/internal/fiber"
	"github.com/dgallion1/docsieve/internal/metrics"
)

// ErrNotFound is returned for an unknown document ID.
var ErrNotFound = errors.New("document not found")

// Document is an indexed document held in memory.
type Document struct {
	ID          string
	Title       string
	Filename    string
	ContentHash string
	CreatedAt   time.Time
	Tree        *fiber.Tree[doctree.Section]
}

// Info is the listing view of a Document.
type Info struct {
	DocID       string    `json:"doc_id"`
	Title       string    `json:"title"`
	Filename    string    `json:"filename,omitempty"`
	ContentHash string    `json:"content_hash"`
	Sections    int       `json:"sections"`
	CreatedAt   time.Time `json:"created_at"`
}

func (d *Document) Info() Info {
	return Info{
		DocID:       d.ID,
		Title:       d.Title,
		Filename:    d.Filename,
		ContentHash: d.ContentHash,
		Sections:    d.Tree.Len(),
		CreatedAt:   d.CreatedAt,
	}
}

// Hit is a section in a search result.
type Hit struct {
	Title            string `json:"title,omitempty"`
	Text             string `json:"text,omitempty"`
	Page             int    `json:"page,omitempty"`
	Level            int    `json:"level,omitempty"`
	Matched          bool   `json:"matched"`
	InMatchedSection bool   `json:"in_matched_section"`
}

// Result is the outcome of Library.Search.
type Result struct {
	DocID    string             `json:"doc_id"`
	Query    Query              `json:"query"`
	Forest   []*fiber.Node[Hit] `json:"results"`
	Matches  int                `json:"matches"`
	Included int                `json:"included"`
	Snippets []doctree.Chunk    `json:"snippets,omitempty"`
	Cached   bool               `json:"cached"`
}

// SearchStats describes recent search activity.
type SearchStats struct {
	metrics.Snapshot
	CacheEntries int `json:"cache_entries"`
	Documents    int `json:"documents"`
}

// Options configures a Library.
type Options struct {
	CacheTTL    time.Duration  // Lifetime of memoized search results
	StatsWindow time.Duration  // Rolling window for latency stats
	Chunk       chunker.Config // Used for snippets
}

// Library is a thread-safe registry of indexed documents with memoized
// search.
type Library struct {
	mu   sync.RWMutex
	docs map[string]*Document

	cache    *cache2go.CacheTable
	prefix   string // Scopes this library's keys in the shared table
	cacheTTL time.Duration
	chunk    chunker.Config
	stats    *metrics.LatencyStats
	log      *slog.Logger
}

func New(opts Options, log *slog.Logger) *Library {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	// Snippets are for display, so short sections are kept.
	opts.Chunk.MinChunk = 1
	return &Library{
		docs: make(map[string]*Document),
		// cache2go tables are process-global by name and never released,
		// so every library shares one table under its own key prefix.
		cache:    cache2go.Cache(cacheTable),
		prefix:   uuid.NewString() + "\x00",
		cacheTTL: opts.CacheTTL,
		chunk:    opts.Chunk,
		stats:    metrics.NewLatencyStats(opts.StatsWindow),
		log:      log,
	}
}

// Put stores doc, replacing any document with the same ID.
func (l *Library) Put(doc *Document) error {
	if doc == nil || doc.Tree == nil {
		return fmt.Errorf("put %q: %w", lo.FromPtr(doc).ID, fiber.ErrEmptyTree)
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	l.mu.Lock()
	_, replaced := l.docs[doc.ID]
	l.docs[doc.ID] = doc
	l.mu.Unlock()

	if replaced {
		l.dropCached(doc.ID)
	}
	l.log.Info("document stored", "doc_id", doc.ID, "sections", doc.Tree.Len(), "replaced", replaced)
	return nil
}

func (l *Library) Get(id string) (*Document, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	doc, ok := l.docs[id]
	return doc, ok
}

// List returns every document, oldest first.
func (l *Library) List() []*Document {
	l.mu.RLock()
	docs := lo.Values(l.docs)
	l.mu.RUnlock()

	slices.SortFunc(docs, func(a, b *Document) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return docs
}

// Delete removes a document and its memoized searches. It reports whether
// the document existed.
func (l *Library) Delete(id string) bool {
	l.mu.Lock()
	_, ok := l.docs[id]
	delete(l.docs, id)
	l.mu.Unlock()

	if ok {
		l.dropCached(id)
	}
	return ok
}

// FindByHash returns a document with the given content hash.
func (l *Library) FindByHash(hash string) (*Document, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return lo.Find(lo.Values(l.docs), func(d *Document) bool {
		return d.ContentHash == hash
	})
}

// Outline returns the full section tree of a document.
func (l *Library) Outline(id string) ([]*doctree.Node, error) {
	doc, ok := l.Get(id)
	if !ok {
		return nil, fmt.Errorf("outline %q: %w", id, ErrNotFound)
	}
	return doc.Tree.Forest(), nil
}

// Search finds the sections of a document matching q, along with their
// ancestors and descendants. Results are memoized per document version
// and query.
func (l *Library) Search(id string, q Query) (*Result, error) {
	start := time.Now()

	doc, ok := l.Get(id)
	if !ok {
		return nil, fmt.Errorf("search %q: %w", id, ErrNotFound)
	}
	match, err := q.Compile()
	if err != nil {
		return nil, err
	}

	key := l.cacheKey(doc, q)
	if item, err := l.cache.Value(key); err == nil {
		// Queries differing only in case share an entry; echo this caller's.
		res := *item.Data().(*Result)
		res.Query = q
		res.Cached = true
		l.stats.Record(time.Since(start), true)
		return &res, nil
	}

	sr, err := fiber.SearchTransform(doc.Tree, doc.Tree.Root(), match, toHit)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", id, err)
	}

	res := &Result{
		DocID:    doc.ID,
		Query:    q,
		Forest:   sr.Forest,
		Matches:  len(sr.Matched),
		Included: len(sr.Added),
	}
	if q.Snippets {
		res.Snippets = chunker.ChunkSections(doc.Tree, matchedSections(sr), l.chunk)
	}

	l.cache.Add(key, l.cacheTTL, res)
	elapsed := time.Since(start)
	l.stats.Record(elapsed, false)
	l.log.Debug("search", "doc_id", doc.ID, "matches", res.Matches, "included", res.Included, "duration_ms", elapsed.Milliseconds())

	out := *res
	return &out, nil
}

// Stats reports search latency and cache usage.
func (l *Library) Stats() SearchStats {
	l.mu.RLock()
	n := len(l.docs)
	l.mu.RUnlock()
	return SearchStats{
		Snapshot:     l.stats.Snapshot(),
		CacheEntries: len(l.cachedKeys(l.prefix)),
		Documents:    n,
	}
}

// Close drops the library's memoized results.
func (l *Library) Close() {
	l.deleteCached(l.prefix)
}

func toHit(s doctree.Section, isMatch, hasMatchedAncestor bool) Hit {
	return Hit{
		Title:            s.Title,
		Text:             s.Text,
		Page:             s.Page,
		Level:            s.Level,
		Matched:          isMatch,
		InMatchedSection: hasMatchedAncestor,
	}
}

// matchedSections returns, in document order, the matched sections and
// everything nested under them.
func matchedSections(sr *fiber.SearchResult[doctree.Section, Hit]) []fiber.ID {
	var ids []fiber.ID
	for _, id := range slices.Sorted(maps.Keys(sr.Added)) {
		if h := sr.Added[id].Value; h.Matched || h.InMatchedSection {
			ids = append(ids, id)
		}
	}
	return ids
}

const cacheTable = "docsieve-search"

func (l *Library) cacheKey(doc *Document, q Query) string {
	return l.prefix + doc.ID + "\x00" + doc.ContentHash + "\x00" + q.key()
}

// dropCached removes the memoized searches of a document.
func (l *Library) dropCached(id string) {
	l.deleteCached(l.prefix + id + "\x00")
}

// deleteCached removes every entry whose key starts with prefix. Keys are
// collected first because Foreach holds the table lock.
func (l *Library) deleteCached(prefix string) {
	for _, k := range l.cachedKeys(prefix) {
		_, _ = l.cache.Delete(k)
	}
}

func (l *Library) cachedKeys(prefix string) []any {
	var keys []any
	l.cache.Foreach(func(key any, _ *cache2go.CacheItem) {
		if k, ok := key.(string); ok && strings.HasPrefix(k, prefix) {
			keys = append(keys, key)
		}
	})
	return keys
}
