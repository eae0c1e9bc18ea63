package hiservice

import "strings"

// Endpoint represents a specific deployment of the HI Service web services
type Endpoint int

// A list of endpoints
const (
	UnknownEndpoint    Endpoint = iota // unknown
	ProductionEndpoint                 // production
	VendorTestEndpoint                 // software vendor test environment
)

var endpointURLs = [...]string{
	"",
	"https://www3.medicareaustralia.gov.au/pcert/soap/services/",
	"https://www5.medicareaustralia.gov.au/cert/soap/services/",
}

var endpointNames = [...]string{
	"unknown",
	"production",
	"vendor-test",
}

// LookupEndpoint returns an endpoint for (P)roduction or vendor (T)est
func LookupEndpoint(s string) Endpoint {
	s2 := strings.ToUpper(s)
	switch {
	case strings.HasPrefix(s2, "P"):
		return ProductionEndpoint
	case strings.HasPrefix(s2, "T"), strings.HasPrefix(s2, "V"):
		return VendorTestEndpoint
	}
	return UnknownEndpoint
}

// URL returns the base URL of this endpoint
func (ep Endpoint) URL() string {
	if ep < UnknownEndpoint || int(ep) >= len(endpointURLs) {
		return ""
	}
	return endpointURLs[ep]
}

// Name returns the name of this endpoint
func (ep Endpoint) Name() string {
	if ep < UnknownEndpoint || int(ep) >= len(endpointNames) {
		return endpointNames[UnknownEndpoint]
	}
	return endpointNames[ep]
}
