package ihi

import (
	"github.com/google/uuid"
)

// Request is a single entry in a batch: a validated set of search criteria paired
// with the caller's request identifier, which is used to correlate the response.
type Request struct {
	RequestIdentifier string
	Kind              Kind
	Search            SearchCriteria
}

// Batch is an outgoing batch of IHI searches. Entries are only added once they have
// been validated for their kind of search. The zero value is an empty batch ready to use.
//
// A Batch is not safe for concurrent use.
type Batch struct {
	requests []Request
}

// NewBatch returns a new, empty batch
func NewBatch() *Batch {
	return &Batch{requests: make([]Request, 0)}
}

// NewRequestIdentifier returns a new random request identifier of the correct length
func NewRequestIdentifier() string {
	return uuid.New().String()
}

// Add validates the criteria for the kind of search specified and, if valid,
// appends them to the batch. The batch is not modified if validation fails.
// A request identifier may only be used once within a batch.
func (b *Batch) Add(kind Kind, requestIdentifier string, c SearchCriteria) error {
	if err := Validate(kind, requestIdentifier, c); err != nil {
		return err
	}
	if requestIdentifier != "" {
		for _, r := range b.requests {
			if r.RequestIdentifier == requestIdentifier {
				return &ValidationError{Kind: kind, Violation: Duplicate, Fields: []string{requestIdentifierPath}, Value: requestIdentifier}
			}
		}
	}
	b.requests = append(b.requests, Request{
		RequestIdentifier: requestIdentifier,
		Kind:              kind,
		Search:            c.clone(),
	})
	return nil
}

// AddBasicSearch adds a search by IHI number, family name, date of birth and sex
func (b *Batch) AddBasicSearch(requestIdentifier string, c SearchCriteria) error {
	return b.Add(KindBasic, requestIdentifier, c)
}

// AddBasicMedicareSearch adds a search by Medicare card number, family name, date of birth and sex
func (b *Batch) AddBasicMedicareSearch(requestIdentifier string, c SearchCriteria) error {
	return b.Add(KindBasicMedicare, requestIdentifier, c)
}

// AddBasicDvaSearch adds a search by DVA file number, family name, date of birth and sex
func (b *Batch) AddBasicDvaSearch(requestIdentifier string, c SearchCriteria) error {
	return b.Add(KindBasicDVA, requestIdentifier, c)
}

// AddDetailedSearch adds a search by family name, date of birth and sex alone
func (b *Batch) AddDetailedSearch(requestIdentifier string, c SearchCriteria) error {
	return b.Add(KindDetailed, requestIdentifier, c)
}

// AddAustralianPostalAddressSearch adds a search by demographics and an Australian postal address
func (b *Batch) AddAustralianPostalAddressSearch(requestIdentifier string, c SearchCriteria) error {
	return b.Add(KindAustralianPostalAddress, requestIdentifier, c)
}

// AddAustralianStreetAddressSearch adds a search by demographics and an Australian street address
func (b *Batch) AddAustralianStreetAddressSearch(requestIdentifier string, c SearchCriteria) error {
	return b.Add(KindAustralianStreetAddress, requestIdentifier, c)
}

// AddInternationalAddressSearch adds a search by demographics and an international address
func (b *Batch) AddInternationalAddressSearch(requestIdentifier string, c SearchCriteria) error {
	return b.Add(KindInternationalAddress, requestIdentifier, c)
}

// Len returns the number of requests in the batch
func (b *Batch) Len() int {
	return len(b.requests)
}

// Requests returns a copy of the requests in the batch
func (b *Batch) Requests() []Request {
	result := make([]Request, len(b.requests))
	for i, r := range b.requests {
		result[i] = Request{
			RequestIdentifier: r.RequestIdentifier,
			Kind:              r.Kind,
			Search:            r.Search.clone(),
		}
	}
	return result
}
