// Package server provides a REST facade over the HI Service client, suitable for
// use by applications that cannot hold the organisation's certificate themselves.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/wardle/hiservice/hiservice"
	"github.com/wardle/hiservice/ihi"
)

// Service is the HI Service client used by the server
type Service interface {
	SearchIHIBatch(ctx context.Context, batch *ihi.Batch) ([]hiservice.SearchResult, error)
	ReadReferenceData(ctx context.Context, elementNames ...string) ([]hiservice.ReferenceData, error)
}

// Options defines the options for a server.
type Options struct {
	Auth           *Auth               // switched off if nil
	Gatherer       prometheus.Gatherer // defaults to the default registry
	AllowedOrigins []string            // defaults to all origins
}

// Server is a REST server for searching for IHIs
type Server struct {
	Options
	svc    Service
	router *mux.Router
}

// New creates a new server
func New(svc Service, opts Options) *Server {
	sv := &Server{Options: opts, svc: svc, router: mux.NewRouter()}
	if sv.Gatherer == nil {
		sv.Gatherer = prometheus.DefaultGatherer
	}
	sv.router.HandleFunc("/health", sv.handleHealth).Methods(http.MethodGet)
	sv.router.Handle("/metrics", promhttp.HandlerFor(sv.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	sv.router.HandleFunc("/v1/ihi/search", sv.handleSearch).Methods(http.MethodPost)
	sv.router.HandleFunc("/v1/reference/{elementName}", sv.handleReferenceData).Methods(http.MethodGet)
	if sv.Auth != nil && sv.Auth.CanIssueTokens() {
		sv.router.HandleFunc("/v1/login", sv.handleLogin).Methods(http.MethodPost)
	}
	return sv
}

// Handler returns the HTTP handler for this server, with authentication and CORS configured
func (sv *Server) Handler() http.Handler {
	var h http.Handler = sv.router
	if sv.Auth != nil {
		h = sv.Auth.Middleware(h)
	}
	if len(sv.AllowedOrigins) == 0 {
		return cors.AllowAll().Handler(h)
	}
	return cors.New(cors.Options{
		AllowedOrigins: sv.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(h)
}

type errorResponse struct {
	Error           string                     `json:"error"`
	Violation       ihi.Violation              `json:"violation,omitempty"`
	Fields          []string                   `json:"fields,omitempty"`
	Kind            string                     `json:"kind,omitempty"`
	Index           *int                       `json:"index,omitempty"`
	HighestSeverity string                     `json:"highestSeverity,omitempty"`
	ServiceMessages []hiservice.ServiceMessage `json:"serviceMessages,omitempty"`
}

// SearchRequest is a batch of IHI searches
type SearchRequest struct {
	Requests []SearchRequestItem `json:"requests"`
}

// SearchRequestItem is a single search within a batch
type SearchRequestItem struct {
	Kind              string             `json:"kind"`
	RequestIdentifier string             `json:"requestIdentifier,omitempty"`
	Search            ihi.SearchCriteria `json:"search"`
}

// SearchResponse is the result of a batch of searches
type SearchResponse struct {
	Results []hiservice.SearchResult `json:"results"`
}

// MaxRequestBytes is the largest request body accepted
const MaxRequestBytes = 1 << 20

// decodeJSON decodes the request body into v, rejecting unknown fields, or writes an error response
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, &errorResponse{Error: fmt.Sprintf("request exceeds %d bytes", tooLarge.Limit)})
			return false
		}
		writeError(w, http.StatusBadRequest, &errorResponse{Error: "invalid request: " + err.Error()})
		return false
	}
	return true
}

func (sv *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Requests) == 0 {
		writeError(w, http.StatusBadRequest, &errorResponse{Error: hiservice.ErrEmptyBatch.Error()})
		return
	}
	batch := ihi.NewBatch()
	for i, item := range req.Requests {
		kind := ihi.LookupKind(item.Kind)
		if kind == ihi.KindUnknown {
			writeError(w, http.StatusBadRequest, &errorResponse{
				Error: fmt.Sprintf("%s: '%s'", ihi.ErrUnknownKind, item.Kind),
				Kind:  item.Kind,
				Index: &i,
			})
			return
		}
		if err := batch.Add(kind, item.RequestIdentifier, item.Search); err != nil {
			resp := &errorResponse{Error: err.Error(), Kind: kind.String(), Index: &i}
			var ve *ihi.ValidationError
			if errors.As(err, &ve) {
				resp.Violation = ve.Violation
				resp.Fields = ve.Fields
			}
			writeError(w, http.StatusBadRequest, resp)
			return
		}
	}
	results, err := sv.svc.SearchIHIBatch(r.Context(), batch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &SearchResponse{Results: results})
}

func (sv *Server) handleReferenceData(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["elementName"]
	rd, err := sv.svc.ReadReferenceData(r.Context(), name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rd[0])
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (sv *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	token, err := sv.Auth.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, &errorResponse{Error: err.Error()})
			return
		}
		writeError(w, http.StatusInternalServerError, &errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, &loginResponse{Token: token})
}

func (sv *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "SERVING"})
}

// writeServiceError maps errors from the HI Service client to HTTP status codes
func writeServiceError(w http.ResponseWriter, err error) {
	var fe *hiservice.FaultError
	switch {
	case errors.As(err, &fe):
		writeError(w, http.StatusBadGateway, &errorResponse{
			Error:           err.Error(),
			HighestSeverity: fe.HighestSeverity,
			ServiceMessages: fe.Messages,
		})
	case errors.Is(err, hiservice.ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, &errorResponse{Error: err.Error()})
	case errors.Is(err, hiservice.ErrUnexpectedEmptyResponse):
		writeError(w, http.StatusBadGateway, &errorResponse{Error: err.Error()})
	case errors.Is(err, hiservice.ErrEmptyBatch), errors.Is(err, hiservice.ErrNoElementNames):
		writeError(w, http.StatusBadRequest, &errorResponse{Error: err.Error()})
	default:
		log.Printf("server: error from HI Service: %s", err)
		writeError(w, http.StatusInternalServerError, &errorResponse{Error: err.Error()})
	}
}

func writeError(w http.ResponseWriter, status int, resp *errorResponse) {
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: failed to write response: %s", err)
	}
}

// Run runs an HTTP server with the handler specified until the context is cancelled
// or the process receives a termination signal, and then shuts down gracefully.
func Run(ctx context.Context, addr string, handler http.Handler) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// listen for OS signals for logging and graceful shutdown
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("server: http listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		select {
		case sig := <-sigs:
			log.Printf("server: received signal: %v", sig)
		case <-ctx.Done():
		}
		// graceful shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
