package hiservice

import (
	"encoding/xml"

	"github.com/wardle/hiservice/ihi"
)

// service paths, relative to the endpoint URL
const (
	searchIHIBatchPath    = "ConsumerSearchIHIBatchSyncService/3.0"
	readReferenceDataPath = "ProviderReadReferenceData/3.0"
)

// SOAP actions
const (
	searchIHIBatchAction    = "http://ns.electronichealth.net.au/hi/svc/ConsumerSearchIHIBatchSyncService/3.0/ConsumerSearchIHIBatchSyncPortType/searchIHIBatchSyncRequest"
	readReferenceDataAction = "http://ns.electronichealth.net.au/hi/svc/ProviderReadReferenceData/3.0/ProviderReadReferenceDataPortType/readReferenceDataRequest"
)

type searchIHIBatchSync struct {
	XMLName  xml.Name                `xml:"http://ns.electronichealth.net.au/hi/xsd/consumermessages/SearchIHIBatchSyncMessages/3.0 searchIHIBatchSync"`
	Requests []searchIHIBatchRequest `xml:"searchIHIBatchRequest"`
}

type searchIHIBatchRequest struct {
	RequestIdentifier string             `xml:"requestIdentifier"`
	SearchIHI         ihi.SearchCriteria `xml:"searchIHI"`
}

type searchIHIBatchSyncResponse struct {
	XMLName xml.Name               `xml:"searchIHIBatchSyncResponse"`
	Results []searchIHIBatchResult `xml:"searchIHIBatchResult"`
}

type searchIHIBatchResult struct {
	RequestIdentifier string          `xml:"requestIdentifier"`
	Result            searchIHIResult `xml:"searchIHIResult"`
}

type searchIHIResult struct {
	IHINumber          string           `xml:"ihiNumber"`
	MedicareCardNumber string           `xml:"medicareCardNumber"`
	MedicareIRN        string           `xml:"medicareIRN"`
	DVAFileNumber      string           `xml:"dvaFileNumber"`
	IHIStatus          string           `xml:"ihiStatus"`
	IHIRecordStatus    string           `xml:"ihiRecordStatus"`
	FamilyName         string           `xml:"familyName"`
	GivenName          string           `xml:"givenName"`
	DateOfBirth        string           `xml:"dateOfBirth"`
	Sex                string           `xml:"sex"`
	ServiceMessages    *serviceMessages `xml:"serviceMessages"`
}

type serviceMessages struct {
	HighestSeverity string           `xml:"highestSeverity"`
	Messages        []serviceMessage `xml:"serviceMessage"`
}

type serviceMessage struct {
	Code     string `xml:"code"`
	Severity string `xml:"severity"`
	Reason   string `xml:"reason"`
}

type readReferenceData struct {
	XMLName      xml.Name `xml:"http://ns.electronichealth.net.au/hi/xsd/providermessages/ReadReferenceDataMessages/3.0 readReferenceData"`
	ElementNames []string `xml:"elementName"`
}

type readReferenceDataResponse struct {
	XMLName         xml.Name                `xml:"readReferenceDataResponse"`
	Elements        []elementReferenceValue `xml:"elementReferenceValues"`
	ServiceMessages *serviceMessages        `xml:"serviceMessages"`
}

type elementReferenceValue struct {
	ElementName string         `xml:"elementName"`
	Values      []referenceSet `xml:"referenceSet"`
}

type referenceSet struct {
	Code        string `xml:"referenceCode"`
	Description string `xml:"referenceDescription"`
}

func (sm *serviceMessages) toMessages() []ServiceMessage {
	if sm == nil {
		return nil
	}
	result := make([]ServiceMessage, 0, len(sm.Messages))
	for _, m := range sm.Messages {
		result = append(result, ServiceMessage{Code: m.Code, Severity: m.Severity, Reason: m.Reason})
	}
	return result
}
