package hiservice

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/h2non/gock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardle/hiservice/identifiers"
	"github.com/wardle/hiservice/ihi"
)

const (
	id1 = "11111111-1111-1111-1111-111111111111"
	id2 = "22222222-2222-2222-2222-222222222222"
)

const searchResponse = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <out:searchIHIBatchSyncResponse xmlns:out="http://ns.electronichealth.net.au/hi/xsd/consumermessages/SearchIHIBatchSyncMessages/3.0">
      <out:searchIHIBatchResult>
        <out:requestIdentifier>22222222-2222-2222-2222-222222222222</out:requestIdentifier>
        <out:searchIHIResult>
          <out:serviceMessages>
            <out:highestSeverity>Warning</out:highestSeverity>
            <out:serviceMessage>
              <out:code>01439</out:code>
              <out:severity>Warning</out:severity>
              <out:reason>No IHI found</out:reason>
            </out:serviceMessage>
          </out:serviceMessages>
        </out:searchIHIResult>
      </out:searchIHIBatchResult>
      <out:searchIHIBatchResult>
        <out:requestIdentifier>11111111-1111-1111-1111-111111111111</out:requestIdentifier>
        <out:searchIHIResult>
          <out:ihiNumber>8003608166690503</out:ihiNumber>
          <out:ihiStatus>Active</out:ihiStatus>
          <out:ihiRecordStatus>Verified</out:ihiRecordStatus>
          <out:familyName>SMITH</out:familyName>
          <out:givenName>JOHN</out:givenName>
          <out:dateOfBirth>1980-01-01</out:dateOfBirth>
          <out:sex>M</out:sex>
        </out:searchIHIResult>
      </out:searchIHIBatchResult>
    </out:searchIHIBatchSyncResponse>
  </soap:Body>
</soap:Envelope>`

const faultResponse = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <soap:Fault>
      <faultcode>soap:Server</faultcode>
      <faultstring>An error has occurred</faultstring>
      <detail>
        <out:serviceMessages xmlns:out="http://ns.electronichealth.net.au/hi/xsd/common/CommonCoreElements/3.0">
          <out:highestSeverity>Fatal</out:highestSeverity>
          <out:serviceMessage>
            <out:code>WSE0035</out:code>
            <out:severity>Fatal</out:severity>
            <out:reason>Certificate is not valid</out:reason>
          </out:serviceMessage>
        </out:serviceMessages>
      </detail>
    </soap:Fault>
  </soap:Body>
</soap:Envelope>`

const referenceResponse = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <out:readReferenceDataResponse xmlns:out="http://ns.electronichealth.net.au/hi/xsd/providermessages/ReadReferenceDataMessages/3.0">
      <out:elementReferenceValues>
        <out:elementName>providerTypeCode</out:elementName>
        <out:referenceSet>
          <out:referenceCode>Individual</out:referenceCode>
          <out:referenceDescription>Individual</out:referenceDescription>
        </out:referenceSet>
        <out:referenceSet>
          <out:referenceCode>Organisation</out:referenceCode>
          <out:referenceDescription>Organisation</out:referenceDescription>
        </out:referenceSet>
      </out:elementReferenceValues>
    </out:readReferenceDataResponse>
  </soap:Body>
</soap:Envelope>`

// recorder is a fake HI Service that records each request
type recorder struct {
	mu       sync.Mutex
	bodies   []string
	actions  []string
	paths    []string
	response string
	delay    time.Duration
}

func (rec *recorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	rec.mu.Lock()
	rec.bodies = append(rec.bodies, string(body))
	rec.actions = append(rec.actions, r.Header.Get("SOAPAction"))
	rec.paths = append(rec.paths, r.URL.Path)
	rec.mu.Unlock()
	if rec.delay > 0 {
		select {
		case <-time.After(rec.delay):
		case <-r.Context().Done():
			return
		}
	}
	w.Header().Set("Content-Type", "text/xml")
	io.WriteString(w, rec.response)
}

func (rec *recorder) calls() int {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return len(rec.bodies)
}

func newTestApp(t *testing.T, rec *recorder, cfg Config, opts ...Option) *App {
	srv := httptest.NewServer(rec)
	t.Cleanup(srv.Close)
	cfg.EndpointURL = srv.URL + "/services/"
	cfg.Product = Product{Platform: "linux", Name: "hiservice", Version: "1.0", VendorID: "ABC12345"}
	if cfg.UserID == "" {
		cfg.UserID = "default-user"
	}
	app, err := New(cfg, opts...)
	require.NoError(t, err)
	return app
}

func testBatch(t *testing.T) *ihi.Batch {
	b := ihi.NewBatch()
	require.NoError(t, b.AddBasicSearch(id1, ihi.SearchCriteria{
		IHINumber:   "8003608166690503",
		FamilyName:  "SMITH",
		DateOfBirth: "1980-01-01",
		Sex:         ihi.SexMale,
	}))
	require.NoError(t, b.AddDetailedSearch(id2, ihi.SearchCriteria{
		FamilyName:  "JONES",
		GivenName:   "MARY",
		DateOfBirth: "1975-06-30",
		Sex:         ihi.SexFemale,
	}))
	return b
}

func TestSearchIHIBatch(t *testing.T) {
	rec := &recorder{response: searchResponse}
	now := time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)
	app := newTestApp(t, rec, Config{HPIO: "8003621566684455"}, WithClock(func() time.Time { return now }))

	ctx := WithUserID(context.Background(), "jwt-user")
	results, err := app.SearchIHIBatch(ctx, testBatch(t))
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, id1, results[0].RequestIdentifier)
	assert.True(t, results[0].Found())
	assert.Equal(t, "8003608166690503", results[0].IHINumber)
	assert.Equal(t, "Active", results[0].IHIStatus)
	assert.Equal(t, "Verified", results[0].IHIRecordStatus)
	assert.Equal(t, ihi.SexMale, results[0].Sex)
	assert.Empty(t, results[0].Messages)

	assert.Equal(t, id2, results[1].RequestIdentifier)
	assert.False(t, results[1].Found())
	require.Len(t, results[1].Messages, 1)
	assert.Equal(t, "01439", results[1].Messages[0].Code)

	require.Equal(t, 1, rec.calls())
	body := rec.bodies[0]
	assert.Equal(t, searchIHIBatchAction, rec.actions[0])
	assert.Equal(t, "/services/"+searchIHIBatchPath, rec.paths[0])
	assert.Contains(t, body, "<requestIdentifier>"+id1+"</requestIdentifier>")
	assert.Contains(t, body, "<ihiNumber>8003608166690503</ihiNumber>")
	assert.Contains(t, body, "<familyName>JONES</familyName>")
	assert.NotContains(t, body, "medicareCardNumber")
	assert.Contains(t, body, ">jwt-user</id>")
	assert.Contains(t, body, ">8003621566684455</id>")
	assert.Contains(t, body, "<created>2021-03-04T05:06:07Z</created>")
	assert.Contains(t, body, "<expires>2021-04-03T05:06:07Z</expires>")
}

func TestMissingResult(t *testing.T) {
	rec := &recorder{response: strings.Replace(searchResponse, id2, "33333333-3333-3333-3333-333333333333", 1)}
	app := newTestApp(t, rec, Config{})
	results, err := app.SearchIHIBatch(context.Background(), testBatch(t))
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Len(t, results[1].Messages, 1)
	assert.Equal(t, messageNoResult, results[1].Messages[0].Code)
}

func TestGeneratedRequestIdentifier(t *testing.T) {
	rec := &recorder{response: searchResponse}
	app := newTestApp(t, rec, Config{})
	b := ihi.NewBatch()
	require.NoError(t, b.AddDetailedSearch("", ihi.SearchCriteria{FamilyName: "JONES", DateOfBirth: "1975-06-30", Sex: ihi.SexFemale}))
	results, err := app.SearchIHIBatch(context.Background(), b)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Len(t, results[0].RequestIdentifier, ihi.RequestIdentifierLength)
	assert.Contains(t, rec.bodies[0], "<requestIdentifier>"+results[0].RequestIdentifier+"</requestIdentifier>")
}

func TestEmptyBatch(t *testing.T) {
	rec := &recorder{response: searchResponse}
	app := newTestApp(t, rec, Config{})
	_, err := app.SearchIHIBatch(context.Background(), ihi.NewBatch())
	assert.True(t, errors.Is(err, ErrEmptyBatch))
	_, err = app.SearchIHIBatch(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrEmptyBatch))
	assert.Equal(t, 0, rec.calls())
}

func TestFault(t *testing.T) {
	defer gock.Off()
	hc := &http.Client{}
	gock.InterceptClient(hc)
	defer gock.RestoreClient(hc)
	gock.New("https://hi.example.com").
		Post("/services/"+searchIHIBatchPath).
		MatchHeader("SOAPAction", "searchIHIBatchSyncRequest").
		Reply(500).
		BodyString(faultResponse)

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	app, err := New(Config{EndpointURL: "https://hi.example.com/services"}, WithHTTPClient(hc), WithMetrics(metrics))
	require.NoError(t, err)
	_, err = app.SearchIHIBatch(context.Background(), testBatch(t))
	var fe *FaultError
	require.True(t, errors.As(err, &fe), "expected fault error, got: %v", err)
	assert.Equal(t, "soap:Server", fe.Code)
	assert.Equal(t, SeverityFatal, fe.HighestSeverity)
	require.Len(t, fe.Messages, 1)
	assert.Equal(t, "WSE0035", fe.Messages[0].Code)
	assert.Contains(t, err.Error(), "Certificate is not valid")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Requests.WithLabelValues(operationSearchIHIBatch, outcomeFault)))
	assert.True(t, gock.IsDone())
}

func TestEmptyResponse(t *testing.T) {
	for name, response := range map[string]string{
		"no content": "",
		"empty body": `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body/></soap:Envelope>`,
		"no body":    `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"></soap:Envelope>`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := &recorder{response: response}
			app := newTestApp(t, rec, Config{})
			results, err := app.SearchIHIBatch(context.Background(), testBatch(t))
			assert.True(t, errors.Is(err, ErrUnexpectedEmptyResponse), "expected empty response, got: %v", err)
			assert.Nil(t, results)
		})
	}
}

func TestTimeout(t *testing.T) {
	rec := &recorder{response: searchResponse, delay: 2 * time.Second}
	app := newTestApp(t, rec, Config{Timeout: 50 * time.Millisecond})
	_, err := app.SearchIHIBatch(context.Background(), testBatch(t))
	assert.True(t, errors.Is(err, ErrTimeout), "expected timeout, got: %v", err)
}

func TestReadReferenceData(t *testing.T) {
	rec := &recorder{response: referenceResponse}
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	app := newTestApp(t, rec, Config{CacheExpiry: time.Minute}, WithMetrics(metrics))

	_, err := app.ReadReferenceData(context.Background())
	assert.True(t, errors.Is(err, ErrNoElementNames))

	for i := 0; i < 2; i++ {
		rd, err := app.ReadReferenceData(context.Background(), "providerTypeCode")
		require.NoError(t, err)
		require.Len(t, rd, 1)
		assert.Equal(t, "providerTypeCode", rd[0].ElementName)
		require.Len(t, rd[0].Values, 2)
		assert.Equal(t, "Organisation", rd[0].Values[1].Code)
	}
	assert.Equal(t, 1, rec.calls())
	assert.Equal(t, readReferenceDataAction, rec.actions[0])
	assert.Contains(t, rec.bodies[0], "<elementName>providerTypeCode</elementName>")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Requests.WithLabelValues(operationReadReferenceData, outcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Requests.WithLabelValues(operationReadReferenceData, outcomeCached)))

	rd, err := app.ReadReferenceData(context.Background(), "providerTypeCode", "unknownElement")
	require.NoError(t, err)
	require.Len(t, rd, 2)
	assert.Equal(t, "unknownElement", rd[1].ElementName)
	assert.Empty(t, rd[1].Values)
	assert.Equal(t, 2, rec.calls())
	assert.NotContains(t, rec.bodies[1], "<elementName>providerTypeCode</elementName>")
}

func TestFake(t *testing.T) {
	app, err := New(Config{Fake: true})
	require.NoError(t, err)
	results, err := app.SearchIHIBatch(context.Background(), testBatch(t))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "8003608166690503", results[0].IHINumber)
	assert.Equal(t, fakeIHI, results[1].IHINumber)
	assert.Equal(t, "JONES", results[1].FamilyName)
	assert.True(t, ihi.IsValidIHI(fakeIHI))

	rd, err := app.ReadReferenceData(context.Background(), "sex", "providerTypeCode")
	require.NoError(t, err)
	require.Len(t, rd, 2)
	assert.Len(t, rd[0].Values, 4)
}

func TestNoEndpoint(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestResolveIHI(t *testing.T) {
	app, err := New(Config{Fake: true})
	require.NoError(t, err)
	app.RegisterResolvers()
	v, err := identifiers.Resolve(context.Background(), identifiers.Identifier{System: identifiers.IHI, Value: "8003 6088 3335 7361"})
	require.NoError(t, err)
	assert.Equal(t, identifiers.Identifier{System: identifiers.IHI, Value: "8003608833357361"}, v)
	_, err = identifiers.Resolve(context.Background(), identifiers.Identifier{System: identifiers.IHI, Value: "8003608833357362"})
	assert.True(t, errors.Is(err, identifiers.ErrInvalid))
}

func TestEndpoints(t *testing.T) {
	tests := map[string]Endpoint{
		"P":           ProductionEndpoint,
		"production":  ProductionEndpoint,
		"T":           VendorTestEndpoint,
		"vendor-test": VendorTestEndpoint,
		"wibble":      UnknownEndpoint,
	}
	for s, ep := range tests {
		assert.Equal(t, ep, LookupEndpoint(s), s)
	}
	assert.Equal(t, "", UnknownEndpoint.URL())
	assert.NotEmpty(t, ProductionEndpoint.URL())
	assert.Equal(t, "vendor-test", VendorTestEndpoint.Name())
	assert.Equal(t, "unknown", Endpoint(99).Name())
}

func TestUserIDContext(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)
	id, ok := UserIDFromContext(WithUserID(context.Background(), "mark"))
	assert.True(t, ok)
	assert.Equal(t, "mark", id)
}

func TestUserQualifier(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	rec := &recorder{response: searchResponse}
	app := newTestApp(t, rec, Config{})
	assert.Contains(t, buf.String(), "no user qualifier configured")
	_, err := app.SearchIHIBatch(context.Background(), testBatch(t))
	require.NoError(t, err)
	assert.Contains(t, rec.bodies[0], identifiers.UserQualifier)

	buf.Reset()
	const qualifier = "http://ns.example.com.au/id/8003621566684455/userid/1.0"
	rec = &recorder{response: searchResponse}
	app = newTestApp(t, rec, Config{UserQualifier: qualifier})
	assert.NotContains(t, buf.String(), "no user qualifier configured")
	_, err = app.SearchIHIBatch(context.Background(), testBatch(t))
	require.NoError(t, err)
	assert.Contains(t, rec.bodies[0], qualifier)
}
