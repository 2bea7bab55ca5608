// Package nav define el colaborador de navegación que usan el Session Manager,
// el pipeline autorizado y los guards, más las reglas de return-url.
package nav

import (
	"net/url"
	"sync"
)

// Options modifica una navegación.
type Options struct {
	// Search es el query string sin '?'. Ej: "returnUrl=%2Fdashboard".
	Search string
	// Replace reemplaza la entrada actual del historial en lugar de apilar.
	Replace bool
}

// Navigator es el colaborador "Navigation".
type Navigator interface {
	Navigate(path string, opts Options)
	CurrentPath() string
	// CurrentSearch devuelve el query string actual sin '?'.
	CurrentSearch() string
}

// Entry es una entrada del historial.
type Entry struct {
	Path   string
	Search string
}

// URL arma path?search.
func (e Entry) URL() string {
	if e.Search == "" {
		return e.Path
	}
	return e.Path + "?" + e.Search
}

// History es un Navigator en memoria (CLI, tests). Seguro para uso concurrente.
type History struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewHistory arranca en start ("/" si vacío). start puede traer query.
func NewHistory(start string) *History {
	if start == "" {
		start = "/"
	}
	return &History{entries: []Entry{parseEntry(start)}}
}

func parseEntry(raw string) Entry {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		return Entry{Path: raw}
	}
	return Entry{Path: u.Path, Search: u.RawQuery}
}

func (h *History) Navigate(path string, opts Options) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e := Entry{Path: path, Search: opts.Search}
	if opts.Replace && len(h.entries) > 0 {
		h.entries[len(h.entries)-1] = e
		return
	}
	h.entries = append(h.entries, e)
}

func (h *History) CurrentPath() string { return h.Current().Path }

func (h *History) CurrentSearch() string { return h.Current().Search }

// Current devuelve la entrada actual.
func (h *History) Current() Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.entries[len(h.entries)-1]
}

// Back descarta la entrada actual; no hace nada si es la única.
func (h *History) Back() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) > 1 {
		h.entries = h.entries[:len(h.entries)-1]
	}
}

// Entries devuelve una copia del historial.
func (h *History) Entries() []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]Entry(nil), h.entries...)
}
