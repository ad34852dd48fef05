// Package http exposes the transaction model over a JSON API. The
// model itself performs no locking, so the API guards every model
// access with a single mutex; handlers are the only code paths that
// touch a served model.
package http

import (
	"net/http"
	"sync"
	"time"

	"expenses/internal/cache"
	"expenses/internal/middleware/ratelimit"
	"expenses/internal/middleware/trace"
	"expenses/internal/model"
)

// API serves a TransactionModel. It registers itself as a model
// listener so cached responses are dropped the moment the model
// changes.
type API struct {
	mu        sync.Mutex
	model     *model.TransactionModel
	listCache *cache.LRUCache[[]byte]
}

// NewAPI wraps m for serving. Registration of the cache-invalidation
// listener happens here; the caller only provides the model.
func NewAPI(m *model.TransactionModel) *API {
	a := &API{
		model:     m,
		listCache: cache.NewLRUCache[[]byte](8, 30*time.Second),
	}
	m.Register(a)
	return a
}

// Update implements model.Listener: any model change invalidates every
// cached response.
func (a *API) Update(*model.TransactionModel) {
	a.listCache.Purge()
}

// RegisterCaches hands the API's caches to a manager for periodic
// expiry cleanup.
func (a *API) RegisterCaches(m *cache.Manager) {
	m.Register(a.listCache)
}

// Routes returns the API handler with all endpoints registered.
func (a *API) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/transactions", a.handleTransactions)
	mux.HandleFunc("/filter", a.handleFilter)
	mux.HandleFunc("/healthz", a.handleHealth)
	return mux
}

// NewServer builds the HTTP server with tracing and optional rate
// limiting in front of the API routes.
func NewServer(addr string, api *API, limiter *ratelimit.Limiter) *http.Server {
	var handler http.Handler = api.Routes()

	if limiter != nil {
		handler = limiter.Middleware(clientIP)(handler)
	}
	handler = trace.NewMiddleware(clientIP).Middleware(handler)

	return &http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16, // 64KB
	}
}
