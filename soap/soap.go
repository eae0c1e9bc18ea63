// Package soap provides a minimal SOAP 1.1 client suitable for the Australian
// Healthcare Identifiers Service, which requires mutually authenticated TLS and a
// set of service-specific header blocks on every request.
package soap

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"time"
)

// NamespaceEnvelope is the SOAP 1.1 envelope namespace
const NamespaceEnvelope = "http://schemas.xmlsoap.org/soap/envelope/"

// DefaultTimeout is the timeout used for calls when no other timeout is configured
const DefaultTimeout = 30 * time.Second

// ErrEmptyResponse means that the remote service returned a successful status but no content
var ErrEmptyResponse = errors.New("soap: empty response")

// Envelope is a SOAP envelope
type Envelope struct {
	XMLName xml.Name `xml:"http://schemas.xmlsoap.org/soap/envelope/ Envelope"`
	Header  *Header
	Body    Body
}

// Header contains the header blocks of an envelope
type Header struct {
	XMLName xml.Name `xml:"http://schemas.xmlsoap.org/soap/envelope/ Header"`

	Items []interface{} `xml:",omitempty"`
}

// Body contains either the content of a message, or a fault
type Body struct {
	XMLName xml.Name `xml:"http://schemas.xmlsoap.org/soap/envelope/ Body"`

	Fault   *Fault      `xml:",omitempty"`
	Content interface{} `xml:",omitempty"`

	consumed bool // set once an element has been decoded from the body
}

// Fault is a SOAP 1.1 fault. The detail is kept as raw XML for the caller to decode.
type Fault struct {
	XMLName xml.Name `xml:"http://schemas.xmlsoap.org/soap/envelope/ Fault"`

	Code   string      `xml:"faultcode,omitempty"`
	String string      `xml:"faultstring,omitempty"`
	Actor  string      `xml:"faultactor,omitempty"`
	Detail FaultDetail `xml:"detail"`
}

// FaultDetail is the unparsed content of a fault's detail element
type FaultDetail struct {
	Content []byte `xml:",innerxml"`
}

func (f *Fault) Error() string {
	if f.Code == "" {
		return "soap: fault: " + f.String
	}
	return fmt.Sprintf("soap: fault: %s: %s", f.Code, f.String)
}

// DecodeDetail unmarshals the fault detail into v
func (f *Fault) DecodeDetail(v interface{}) error {
	if len(bytes.TrimSpace(f.Detail.Content)) == 0 {
		return fmt.Errorf("soap: fault has no detail")
	}
	return xml.Unmarshal(f.Detail.Content, v)
}

// HTTPError is returned when the remote service responds with an unsuccessful
// HTTP status and no SOAP fault.
type HTTPError struct {
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("soap: unexpected http status: %s", e.Status)
}

// UnmarshalXML decodes the body into either the fault or the content.
// Content must have been set to a pointer to a struct before unmarshalling.
func (b *Body) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	if b.Content == nil {
		return xml.UnmarshalError("Content must be a pointer to a struct")
	}
	var (
		token xml.Token
		err   error
	)
Loop:
	for {
		if token, err = d.Token(); err != nil {
			return err
		}
		if token == nil {
			break
		}
		switch se := token.(type) {
		case xml.StartElement:
			if b.consumed {
				return xml.UnmarshalError("Found multiple elements inside SOAP body; not wrapped-document/literal WS-I compliant")
			} else if se.Name.Space == NamespaceEnvelope && se.Name.Local == "Fault" {
				b.Fault = &Fault{}
				b.Content = nil
				if err = d.DecodeElement(b.Fault, &se); err != nil {
					return err
				}
				b.consumed = true
			} else {
				if err = d.DecodeElement(b.Content, &se); err != nil {
					return err
				}
				b.consumed = true
			}
		case xml.EndElement:
			break Loop
		}
	}
	return nil
}

// Signer signs a marshalled envelope before it is sent, e.g. by adding an XML signature
// to the header. The returned bytes are sent in place of the original envelope.
type Signer interface {
	Sign(envelope []byte) ([]byte, error)
}

// Client is a SOAP client for a single endpoint. It is safe for concurrent use.
type Client struct {
	url        string
	httpClient *http.Client
	signer     Signer
}

// Option configures a Client
type Option func(*Client)

// WithTLSConfig sets the TLS configuration, such as the client certificate used for mutual TLS
func WithTLSConfig(cfg *tls.Config) Option {
	return func(c *Client) {
		if tr, ok := c.httpClient.Transport.(*http.Transport); ok {
			tr.TLSClientConfig = cfg
		}
	}
}

// WithTimeout sets the overall timeout for each call
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithSigner sets a signer to sign each envelope before it is sent
func WithSigner(s Signer) Option {
	return func(c *Client) {
		c.signer = s
	}
}

// NewClient creates a new client for the endpoint URL specified
func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				DialContext:         (&net.Dialer{Timeout: DefaultTimeout}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the endpoint URL of this client
func (c *Client) URL() string {
	return c.url
}

// Marshal returns the XML for an envelope containing the request and header blocks specified
func Marshal(request interface{}, headers ...interface{}) ([]byte, error) {
	envelope := Envelope{}
	if len(headers) > 0 {
		envelope.Header = &Header{Items: make([]interface{}, len(headers))}
		copy(envelope.Header.Items, headers)
	}
	envelope.Body.Content = request
	buffer := new(bytes.Buffer)
	buffer.WriteString(xml.Header)
	encoder := xml.NewEncoder(buffer)
	if err := encoder.Encode(envelope); err != nil {
		return nil, err
	}
	if err := encoder.Flush(); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// Call sends the request with the header blocks specified and unmarshals the reply into response.
// A SOAP fault is returned as a *Fault error, an empty reply as ErrEmptyResponse and any other
// unsuccessful HTTP status as a *HTTPError.
func (c *Client) Call(ctx context.Context, soapAction string, request, response interface{}, headers ...interface{}) error {
	start := time.Now()
	data, err := Marshal(request, headers...)
	if err != nil {
		return fmt.Errorf("soap: failed to marshal request: %w", err)
	}
	if c.signer != nil {
		if data, err = c.signer.Sign(data); err != nil {
			return fmt.Errorf("soap: failed to sign request: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/xml; charset=\"utf-8\"")
	req.Header.Set("SOAPAction", soapAction)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	log.Printf("soap: %s: response (%s): status: %d, %d bytes", soapAction, time.Since(start), resp.StatusCode, len(body))
	success := resp.StatusCode >= 200 && resp.StatusCode < 300
	if len(bytes.TrimSpace(body)) == 0 {
		if !success {
			return &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status}
		}
		return ErrEmptyResponse
	}
	respEnvelope := new(Envelope)
	respEnvelope.Body = Body{Content: response}
	if err := xml.Unmarshal(body, respEnvelope); err != nil {
		if !success {
			return &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status}
		}
		return fmt.Errorf("soap: failed to parse response: %w", err)
	}
	if fault := respEnvelope.Body.Fault; fault != nil {
		return fault
	}
	if !success {
		return &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	if !respEnvelope.Body.consumed {
		return ErrEmptyResponse
	}
	return nil
}
