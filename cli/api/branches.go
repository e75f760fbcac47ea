package api

import (
	"context"
	"net/http"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/limitedeportes/panel/engine/apperr"
	"github.com/limitedeportes/panel/engine/listview"
)

const defaultDirectorySize = 256

// BranchDirectory resolves branch codes to names. Misses reload the whole
// branch list once and fill the cache from it.
type BranchDirectory struct {
	source listview.DataSource
	cache  *lru.Cache[string, string]
	mu     sync.Mutex
}

// NewBranchDirectory caches up to size names read from source.
func NewBranchDirectory(source listview.DataSource, size int) (*BranchDirectory, error) {
	if size <= 0 {
		size = defaultDirectorySize
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &BranchDirectory{source: source, cache: cache}, nil
}

// Name returns the branch name for code.
func (d *BranchDirectory) Name(ctx context.Context, code string) (string, error) {
	code = strings.TrimSpace(code)
	if name, ok := d.cache.Get(code); ok {
		return name, nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if name, ok := d.cache.Get(code); ok {
		return name, nil
	}
	if err := d.loadLocked(ctx); err != nil {
		return "", err
	}
	if name, ok := d.cache.Get(code); ok {
		return name, nil
	}
	return "", apperr.FromStatus(apperr.OpGet, http.StatusNotFound, "")
}

// Warm loads every branch into the cache.
func (d *BranchDirectory) Warm(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loadLocked(ctx)
}

// Invalidate drops all cached names.
func (d *BranchDirectory) Invalidate() {
	d.cache.Purge()
}

// Len returns the number of cached names.
func (d *BranchDirectory) Len() int {
	return d.cache.Len()
}

func (d *BranchDirectory) loadLocked(ctx context.Context) error {
	branches, err := d.source.List(ctx)
	if err != nil {
		return err
	}
	for _, b := range branches {
		d.cache.Add(b.Key, b.Get("nombre"))
	}
	return nil
}
