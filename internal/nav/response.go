package nav

import (
	"net/http"
	"sync"
)

// ResponseNavigator adapta Navigator a un request HTTP: CurrentPath/Search salen
// del request y Navigate solo registra el destino; el handler lo materializa
// con Flush (303 See Other).
type ResponseNavigator struct {
	mu      sync.Mutex
	path    string
	search  string
	target  *Entry
	replace bool
}

// NewResponseNavigator toma path y query del request.
func NewResponseNavigator(r *http.Request) *ResponseNavigator {
	return &ResponseNavigator{path: r.URL.Path, search: r.URL.RawQuery}
}

func (n *ResponseNavigator) Navigate(path string, opts Options) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.target = &Entry{Path: path, Search: opts.Search}
	n.replace = opts.Replace
}

func (n *ResponseNavigator) CurrentPath() string { return n.path }

func (n *ResponseNavigator) CurrentSearch() string { return n.search }

// Target devuelve el destino registrado, si hubo navegación.
func (n *ResponseNavigator) Target() (Entry, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.target == nil {
		return Entry{}, false
	}
	return *n.target, true
}

// Flush escribe la redirección si hubo navegación. Devuelve true si escribió.
func (n *ResponseNavigator) Flush(w http.ResponseWriter, r *http.Request) bool {
	e, ok := n.Target()
	if !ok {
		return false
	}
	http.Redirect(w, r, e.URL(), http.StatusSeeOther)
	return true
}
