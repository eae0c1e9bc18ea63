package soap

import (
	"encoding/xml"
	"time"

	"github.com/google/uuid"
)

// Namespaces used by the header blocks
const (
	NamespaceCoreElements = "http://ns.electronichealth.net.au/hi/xsd/common/CommonCoreElements/3.0"
	NamespaceQualifiedID  = "http://ns.electronichealth.net.au/hi/xsd/common/QualifiedIdentifier/3.0"
	NamespaceWSSE         = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-secext-1.0.xsd"
	NamespaceWSU          = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-utility-1.0.xsd"
	NamespaceAddressing   = "http://www.w3.org/2005/08/addressing"
)

// TimestampValidity is how long a request remains valid after it is created
const TimestampValidity = 30 * 24 * time.Hour

// QualifiedID is an identifier value with the URI of the system that issued it
type QualifiedID struct {
	Qualifier string `xml:"http://ns.electronichealth.net.au/hi/xsd/common/QualifiedIdentifier/3.0 qualifier"`
	ID        string `xml:"http://ns.electronichealth.net.au/hi/xsd/common/QualifiedIdentifier/3.0 id"`
}

// ProductHeader identifies the software product making the call, as registered with the service operator
type ProductHeader struct {
	XMLName        xml.Name    `xml:"http://ns.electronichealth.net.au/hi/xsd/common/CommonCoreElements/3.0 product"`
	MustUnderstand string      `xml:"http://schemas.xmlsoap.org/soap/envelope/ mustUnderstand,attr,omitempty"`
	Platform       string      `xml:"platform"`
	ProductName    string      `xml:"productName"`
	ProductVersion string      `xml:"productVersion"`
	Vendor         QualifiedID `xml:"vendor"`
}

// UserHeader identifies the individual user on whose behalf the call is made
type UserHeader struct {
	XMLName        xml.Name `xml:"http://ns.electronichealth.net.au/hi/xsd/common/CommonCoreElements/3.0 user"`
	MustUnderstand string   `xml:"http://schemas.xmlsoap.org/soap/envelope/ mustUnderstand,attr,omitempty"`
	QualifiedID
	UseAlternateOrganisationName string `xml:"useAlternateOrganisationName,omitempty"`
}

// HPIOHeader identifies the healthcare provider organisation on whose behalf the call is made.
// It is only required for contracted service providers acting for another organisation.
type HPIOHeader struct {
	XMLName        xml.Name `xml:"http://ns.electronichealth.net.au/hi/xsd/common/CommonCoreElements/3.0 hpio"`
	MustUnderstand string   `xml:"http://schemas.xmlsoap.org/soap/envelope/ mustUnderstand,attr,omitempty"`
	QualifiedID
}

// TimestampHeader records when a request was created and when it expires
type TimestampHeader struct {
	XMLName        xml.Name  `xml:"http://ns.electronichealth.net.au/hi/xsd/common/CommonCoreElements/3.0 timestamp"`
	MustUnderstand string    `xml:"http://schemas.xmlsoap.org/soap/envelope/ mustUnderstand,attr,omitempty"`
	Created        time.Time `xml:"created"`
	Expires        time.Time `xml:"expires"`
}

// SecurityHeader is the WS-Security header; it carries a timestamp and is where a signer adds its signature
type SecurityHeader struct {
	XMLName   xml.Name     `xml:"http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-secext-1.0.xsd Security"`
	Timestamp WSUTimestamp `xml:"http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-utility-1.0.xsd Timestamp"`
}

// WSUTimestamp is a WS-Security utility timestamp
type WSUTimestamp struct {
	Created string `xml:"http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-utility-1.0.xsd Created"`
	Expires string `xml:"http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-utility-1.0.xsd Expires"`
}

// MessageIDHeader is the WS-Addressing message identifier
type MessageIDHeader struct {
	XMLName xml.Name `xml:"http://www.w3.org/2005/08/addressing MessageID"`
	Value   string   `xml:",chardata"`
}

// ActionHeader is the WS-Addressing action
type ActionHeader struct {
	XMLName xml.Name `xml:"http://www.w3.org/2005/08/addressing Action"`
	Value   string   `xml:",chardata"`
}

// NewTimestamp returns a timestamp created at the time specified, expiring after TimestampValidity
func NewTimestamp(now time.Time) *TimestampHeader {
	created := now.UTC().Truncate(time.Millisecond)
	return &TimestampHeader{
		MustUnderstand: "1",
		Created:        created,
		Expires:        created.Add(TimestampValidity),
	}
}

// NewSecurityHeader returns a WS-Security header with a timestamp matching the one specified
func NewSecurityHeader(ts *TimestampHeader) *SecurityHeader {
	return &SecurityHeader{
		Timestamp: WSUTimestamp{
			Created: ts.Created.Format(time.RFC3339Nano),
			Expires: ts.Expires.Format(time.RFC3339Nano),
		},
	}
}

// NewMessageID returns a WS-Addressing message identifier using a random UUID
func NewMessageID() *MessageIDHeader {
	return &MessageIDHeader{Value: "urn:uuid:" + uuid.New().String()}
}
