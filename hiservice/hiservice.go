// Package hiservice provides a lightweight wrapper around the Australian Healthcare
// Identifiers (HI) Service, submitting validated batches of IHI searches and reading
// provider reference data.
package hiservice

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/wardle/hiservice/identifiers"
	"github.com/wardle/hiservice/ihi"
	"github.com/wardle/hiservice/soap"
)

// Product identifies the software making calls, as registered with the HI Service operator
type Product struct {
	Platform        string
	Name            string
	Version         string
	VendorID        string
	VendorQualifier string
}

// Config is the configuration for the HI Service client
type Config struct {
	Endpoint           Endpoint
	EndpointURL        string // override URL for the specified endpoint
	Product            Product
	UserID             string // default user, overridden per call by WithUserID
	UserQualifier      string
	HPIO               string // only for contracted service providers
	Timeout            time.Duration
	CacheExpiry        time.Duration // zero disables caching of reference data
	KeystorePath       string
	KeystorePassword   string
	CACertificatesPath string // optional PEM bundle; defaults to host roots
	Fake               bool
}

// App represents the HI Service application
type App struct {
	cfg             Config
	timeout         time.Duration
	searchClient    *soap.Client
	referenceClient *soap.Client
	cache           *cache.Cache // may be nil if not caching
	metrics         *Metrics
	now             func() time.Time
}

type options struct {
	httpClient *http.Client
	metrics    *Metrics
	now        func() time.Time
}

// Option configures an App
type Option func(*options)

// WithHTTPClient uses the HTTP client specified instead of one configured from the keystore
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithMetrics records metrics for each call
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithClock uses the function specified to generate request timestamps
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New creates a new HI Service client from the configuration specified
func New(cfg Config, opts ...Option) (*App, error) {
	o := &options{now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	if o.metrics == nil {
		o.metrics = NewMetrics(nil)
	}
	app := &App{
		cfg:     cfg,
		timeout: cfg.Timeout,
		metrics: o.metrics,
		now:     o.now,
	}
	if app.timeout <= 0 {
		app.timeout = soap.DefaultTimeout
	}
	if cfg.CacheExpiry > 0 {
		app.cache = cache.New(cfg.CacheExpiry, 2*cfg.CacheExpiry)
	}
	if cfg.Fake {
		log.Printf("hiservice: running in fake mode; no requests will be made to the HI Service")
		return app, nil
	}
	baseURL := cfg.EndpointURL
	if baseURL == "" {
		baseURL = cfg.Endpoint.URL()
	}
	if baseURL == "" {
		return nil, errors.New("hiservice: no endpoint configured")
	}
	soapOpts := []soap.Option{soap.WithTimeout(app.timeout)}
	if o.httpClient != nil {
		soapOpts = append(soapOpts, soap.WithHTTPClient(o.httpClient))
	} else if cfg.KeystorePath != "" {
		cert, err := soap.LoadKeystore(cfg.KeystorePath, cfg.KeystorePassword)
		if err != nil {
			return nil, err
		}
		tlsConfig := soap.TLSConfig(cert, nil)
		if cfg.CACertificatesPath != "" {
			pool, err := soap.LoadCertPool(cfg.CACertificatesPath)
			if err != nil {
				return nil, err
			}
			tlsConfig.RootCAs = pool
		}
		soapOpts = append(soapOpts, soap.WithTLSConfig(tlsConfig))
		log.Printf("hiservice: using client certificate '%s'", cert.Leaf.Subject.CommonName)
	} else {
		log.Printf("hiservice: warning: no keystore configured; the HI Service requires mutual TLS")
	}
	if cfg.UserQualifier == "" {
		log.Printf("hiservice: warning: no user qualifier configured; using '%s' rather than the organisation's own", identifiers.UserQualifier)
	}
	app.searchClient = soap.NewClient(joinURL(baseURL, searchIHIBatchPath), soapOpts...)
	app.referenceClient = soap.NewClient(joinURL(baseURL, readReferenceDataPath), soapOpts...)
	log.Printf("hiservice: using endpoint %s (%s)", cfg.Endpoint.Name(), baseURL)
	return app, nil
}

func joinURL(base string, path string) string {
	return strings.TrimSuffix(base, "/") + "/" + path
}

// SearchResult is the result of a single search within a batch
type SearchResult struct {
	RequestIdentifier  string           `json:"requestIdentifier" yaml:"requestIdentifier"`
	IHINumber          string           `json:"ihiNumber,omitempty" yaml:"ihiNumber,omitempty"`
	IHIStatus          string           `json:"ihiStatus,omitempty" yaml:"ihiStatus,omitempty"`
	IHIRecordStatus    string           `json:"ihiRecordStatus,omitempty" yaml:"ihiRecordStatus,omitempty"`
	MedicareCardNumber string           `json:"medicareCardNumber,omitempty" yaml:"medicareCardNumber,omitempty"`
	MedicareIRN        string           `json:"medicareIRN,omitempty" yaml:"medicareIRN,omitempty"`
	DVAFileNumber      string           `json:"dvaFileNumber,omitempty" yaml:"dvaFileNumber,omitempty"`
	FamilyName         string           `json:"familyName,omitempty" yaml:"familyName,omitempty"`
	GivenName          string           `json:"givenName,omitempty" yaml:"givenName,omitempty"`
	DateOfBirth        string           `json:"dateOfBirth,omitempty" yaml:"dateOfBirth,omitempty"`
	Sex                ihi.Sex          `json:"sex,omitempty" yaml:"sex,omitempty"`
	Messages           []ServiceMessage `json:"serviceMessages,omitempty" yaml:"serviceMessages,omitempty"`
}

// Found returns whether an IHI was found
func (r SearchResult) Found() bool {
	return r.IHINumber != ""
}

// messageNoResult is reported for a request that has no matching result in the response
const messageNoResult = "hiservice.NO_RESULT"

// SearchIHIBatch submits the batch to the HI Service and returns one result for each request,
// in the same order as the requests. Requests without an identifier are given one, which is
// reported in the result.
func (app *App) SearchIHIBatch(ctx context.Context, batch *ihi.Batch) ([]SearchResult, error) {
	start := time.Now()
	if batch == nil || batch.Len() == 0 {
		return nil, ErrEmptyBatch
	}
	requests := batch.Requests()
	for i := range requests {
		if requests[i].RequestIdentifier == "" {
			requests[i].RequestIdentifier = ihi.NewRequestIdentifier()
		}
	}
	userID := app.userID(ctx)
	if app.cfg.Fake {
		log.Printf("hiservice: returning fake results for batch of %d from '%s'", len(requests), userID)
		app.metrics.observe(operationSearchIHIBatch, outcomeFake, start)
		return performFake(requests), nil
	}
	log.Printf("hiservice: search batch of %d from '%s'", len(requests), userID)
	msg := &searchIHIBatchSync{Requests: make([]searchIHIBatchRequest, len(requests))}
	for i, r := range requests {
		msg.Requests[i] = searchIHIBatchRequest{RequestIdentifier: r.RequestIdentifier, SearchIHI: r.Search}
	}
	ctx, cancelFunc := context.WithTimeout(ctx, app.timeout)
	defer cancelFunc()
	var resp searchIHIBatchSyncResponse
	if err := app.searchClient.Call(ctx, searchIHIBatchAction, msg, &resp, app.headers(userID)...); err != nil {
		outcome, err := app.translateError(err)
		app.metrics.observe(operationSearchIHIBatch, outcome, start)
		log.Printf("hiservice: search batch of %d failed: %s", len(requests), err)
		return nil, err
	}
	results := matchResults(requests, resp.Results)
	app.metrics.observe(operationSearchIHIBatch, outcomeSuccess, start)
	log.Printf("hiservice: search batch of %d: response in %s", len(requests), time.Since(start))
	return results, nil
}

func matchResults(requests []ihi.Request, responses []searchIHIBatchResult) []SearchResult {
	byID := make(map[string]searchIHIResult, len(responses))
	for _, r := range responses {
		byID[r.RequestIdentifier] = r.Result
	}
	results := make([]SearchResult, len(requests))
	for i, req := range requests {
		r, ok := byID[req.RequestIdentifier]
		if !ok {
			results[i] = SearchResult{
				RequestIdentifier: req.RequestIdentifier,
				Messages: []ServiceMessage{{
					Code:     messageNoResult,
					Severity: SeverityError,
					Reason:   "no result was returned for this request",
				}},
			}
			continue
		}
		results[i] = SearchResult{
			RequestIdentifier:  req.RequestIdentifier,
			IHINumber:          r.IHINumber,
			IHIStatus:          r.IHIStatus,
			IHIRecordStatus:    r.IHIRecordStatus,
			MedicareCardNumber: r.MedicareCardNumber,
			MedicareIRN:        r.MedicareIRN,
			DVAFileNumber:      r.DVAFileNumber,
			FamilyName:         r.FamilyName,
			GivenName:          r.GivenName,
			DateOfBirth:        r.DateOfBirth,
			Sex:                ihi.Sex(r.Sex),
			Messages:           r.ServiceMessages.toMessages(),
		}
	}
	return results
}

// ReferenceData is the list of permitted values for a named element
type ReferenceData struct {
	ElementName string           `json:"elementName" yaml:"elementName"`
	Values      []ReferenceValue `json:"values" yaml:"values"`
}

// ReferenceValue is a single permitted value
type ReferenceValue struct {
	Code        string `json:"code" yaml:"code"`
	Description string `json:"description" yaml:"description"`
}

// ReadReferenceData returns the permitted values for the elements specified, e.g. "providerTypeCode".
// Results are cached, if caching is enabled.
func (app *App) ReadReferenceData(ctx context.Context, elementNames ...string) ([]ReferenceData, error) {
	start := time.Now()
	if len(elementNames) == 0 {
		return nil, ErrNoElementNames
	}
	result := make([]ReferenceData, len(elementNames))
	missing := make([]string, 0, len(elementNames))
	for i, name := range elementNames {
		if rd, found := app.getCache(name); found {
			result[i] = rd
		} else {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		log.Printf("hiservice: serving reference data for %v from cache in %s", elementNames, time.Since(start))
		app.metrics.observe(operationReadReferenceData, outcomeCached, start)
		return result, nil
	}
	var fetched map[string]ReferenceData
	if app.cfg.Fake {
		fetched = performFakeReferenceData(missing)
		app.metrics.observe(operationReadReferenceData, outcomeFake, start)
	} else {
		var err error
		if fetched, err = app.performReadReferenceData(ctx, missing); err != nil {
			outcome, err := app.translateError(err)
			app.metrics.observe(operationReadReferenceData, outcome, start)
			return nil, err
		}
		app.metrics.observe(operationReadReferenceData, outcomeSuccess, start)
	}
	for i, name := range elementNames {
		if rd, ok := fetched[name]; ok {
			result[i] = rd
			app.setCache(name, rd)
		} else if result[i].ElementName == "" {
			result[i] = ReferenceData{ElementName: name, Values: []ReferenceValue{}}
		}
	}
	return result, nil
}

func (app *App) performReadReferenceData(ctx context.Context, elementNames []string) (map[string]ReferenceData, error) {
	ctx, cancelFunc := context.WithTimeout(ctx, app.timeout)
	defer cancelFunc()
	var resp readReferenceDataResponse
	msg := &readReferenceData{ElementNames: elementNames}
	if err := app.referenceClient.Call(ctx, readReferenceDataAction, msg, &resp, app.headers(app.userID(ctx))...); err != nil {
		return nil, err
	}
	if len(resp.Elements) == 0 && resp.ServiceMessages != nil {
		return nil, &FaultError{
			Code:            "serviceMessages",
			Reason:          "no reference data returned",
			HighestSeverity: resp.ServiceMessages.HighestSeverity,
			Messages:        resp.ServiceMessages.toMessages(),
		}
	}
	result := make(map[string]ReferenceData, len(resp.Elements))
	for _, e := range resp.Elements {
		rd := ReferenceData{ElementName: e.ElementName, Values: make([]ReferenceValue, len(e.Values))}
		for i, v := range e.Values {
			rd.Values[i] = ReferenceValue{Code: v.Code, Description: v.Description}
		}
		result[e.ElementName] = rd
	}
	return result, nil
}

func (app *App) userID(ctx context.Context) string {
	if userID, ok := UserIDFromContext(ctx); ok {
		return userID
	}
	return app.cfg.UserID
}

// headers returns the header blocks required by the HI Service for every call
func (app *App) headers(userID string) []interface{} {
	vendorQualifier := app.cfg.Product.VendorQualifier
	if vendorQualifier == "" {
		vendorQualifier = identifiers.VendorQualifier
	}
	userQualifier := app.cfg.UserQualifier
	if userQualifier == "" {
		userQualifier = identifiers.UserQualifier
	}
	ts := soap.NewTimestamp(app.now())
	headers := []interface{}{
		soap.NewMessageID(),
		&soap.ProductHeader{
			MustUnderstand: "1",
			Platform:       app.cfg.Product.Platform,
			ProductName:    app.cfg.Product.Name,
			ProductVersion: app.cfg.Product.Version,
			Vendor:         soap.QualifiedID{Qualifier: vendorQualifier, ID: app.cfg.Product.VendorID},
		},
		&soap.UserHeader{
			MustUnderstand: "1",
			QualifiedID:    soap.QualifiedID{Qualifier: userQualifier, ID: userID},
		},
		ts,
		soap.NewSecurityHeader(ts),
	}
	if app.cfg.HPIO != "" {
		headers = append(headers, &soap.HPIOHeader{
			MustUnderstand: "1",
			QualifiedID:    soap.QualifiedID{Qualifier: identifiers.HPIO, ID: app.cfg.HPIO},
		})
	}
	return headers
}

func (app *App) getCache(elementName string) (ReferenceData, bool) {
	if app.cache == nil {
		return ReferenceData{}, false
	}
	if o, found := app.cache.Get("reference/" + elementName); found {
		return o.(ReferenceData), true
	}
	return ReferenceData{}, false
}

func (app *App) setCache(elementName string, value ReferenceData) {
	if app.cache == nil {
		return
	}
	app.cache.Set("reference/"+elementName, value, cache.DefaultExpiration)
}

// ResolveIHI provides an identifier/value resolution service for IHI numbers, returning the
// normalised identifier if the check digit is valid.
func (app *App) ResolveIHI(ctx context.Context, id identifiers.Identifier) (interface{}, error) {
	if !ihi.IsValidIHI(id.Value) {
		return nil, fmt.Errorf("%w: %s", identifiers.ErrInvalid, id)
	}
	return identifiers.Identifier{
		System: identifiers.IHI,
		Value:  strings.ReplaceAll(id.Value, " ", ""),
	}, nil
}

// RegisterResolvers registers this application's identifier resolvers
func (app *App) RegisterResolvers() {
	identifiers.RegisterResolver(identifiers.IHI, app.ResolveIHI)
}
