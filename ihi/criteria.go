// Package ihi provides the search criteria used to look up an Individual Healthcare
// Identifier (IHI) from the Australian Healthcare Identifiers Service, and validates
// that a set of criteria is acceptable for a particular kind of search before it
// is added to an outgoing batch.
package ihi

// Sex represents the administrative sex of the individual being searched for
type Sex string

// List of sex codes accepted by the HI Service
const (
	SexMale         Sex = "M"
	SexFemale       Sex = "F"
	SexIntersex     Sex = "I"
	SexNotStated    Sex = "N"
	sexUnknownValue Sex = ""
)

var sexNames = map[Sex]string{
	SexMale:      "male",
	SexFemale:    "female",
	SexIntersex:  "intersex or indeterminate",
	SexNotStated: "not stated",
}

// Name returns a readable name for this sex code
func (s Sex) Name() string {
	if n, ok := sexNames[s]; ok {
		return n
	}
	return "unknown"
}

// LookupSex returns the sex for the code or name specified, e.g. "M", "male", "f"
func LookupSex(s string) Sex {
	switch s {
	case "M", "m", "male", "Male", "MALE":
		return SexMale
	case "F", "f", "female", "Female", "FEMALE":
		return SexFemale
	case "I", "i", "intersex", "Intersex", "INTERSEX":
		return SexIntersex
	case "N", "n", "not stated", "NOT STATED":
		return SexNotStated
	}
	return sexUnknownValue
}

// State is an Australian state or territory code
type State string

// List of Australian states and territories
const (
	StateACT State = "ACT"
	StateNSW State = "NSW"
	StateNT  State = "NT"
	StateQLD State = "QLD"
	StateSA  State = "SA"
	StateTAS State = "TAS"
	StateVIC State = "VIC"
	StateWA  State = "WA"
)

// SearchCriteria is the single flat record shared by every kind of IHI search.
// Not all fields are meaningful for a given search kind; those that are not must
// be left unset. Text fields are "present" when non-empty, and pointer fields when
// non-nil.
type SearchCriteria struct {
	IHINumber          string `json:"ihiNumber,omitempty" yaml:"ihiNumber,omitempty" xml:"ihiNumber,omitempty"`
	MedicareCardNumber string `json:"medicareCardNumber,omitempty" yaml:"medicareCardNumber,omitempty" xml:"medicareCardNumber,omitempty"`
	MedicareIRN        string `json:"medicareIRN,omitempty" yaml:"medicareIRN,omitempty" xml:"medicareIRN,omitempty"`
	DVAFileNumber      string `json:"dvaFileNumber,omitempty" yaml:"dvaFileNumber,omitempty" xml:"dvaFileNumber,omitempty"`
	History            *bool  `json:"history,omitempty" yaml:"history,omitempty" xml:"history,omitempty"`

	FamilyName  string `json:"familyName,omitempty" yaml:"familyName,omitempty" xml:"familyName,omitempty"`
	GivenName   string `json:"givenName,omitempty" yaml:"givenName,omitempty" xml:"givenName,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty" yaml:"dateOfBirth,omitempty" xml:"dateOfBirth,omitempty"` // xsd:date (2006-01-02) or an RFC 3339 date-time
	Sex         Sex    `json:"sex,omitempty" yaml:"sex,omitempty" xml:"sex,omitempty"`

	AustralianPostalAddress *AustralianPostalAddress `json:"australianPostalAddress,omitempty" yaml:"australianPostalAddress,omitempty" xml:"australianPostalAddress,omitempty"`
	AustralianStreetAddress *AustralianStreetAddress `json:"australianStreetAddress,omitempty" yaml:"australianStreetAddress,omitempty" xml:"australianStreetAddress,omitempty"`
	InternationalAddress    *InternationalAddress    `json:"internationalAddress,omitempty" yaml:"internationalAddress,omitempty" xml:"internationalAddress,omitempty"`
}

// AustralianPostalAddress is a postal delivery address, such as a PO box
type AustralianPostalAddress struct {
	PostalDeliveryGroup *PostalDeliveryGroup `json:"postalDeliveryGroup,omitempty" yaml:"postalDeliveryGroup,omitempty" xml:"postalDeliveryGroup,omitempty"`
	Suburb              string               `json:"suburb,omitempty" yaml:"suburb,omitempty" xml:"suburb,omitempty"`
	State               State                `json:"state,omitempty" yaml:"state,omitempty" xml:"state,omitempty"`
	Postcode            string               `json:"postcode,omitempty" yaml:"postcode,omitempty" xml:"postcode,omitempty"`
}

// PostalDeliveryGroup identifies the postal delivery service, e.g. "PO BOX" 123
type PostalDeliveryGroup struct {
	PostalDeliveryType   string `json:"postalDeliveryType,omitempty" yaml:"postalDeliveryType,omitempty" xml:"postalDeliveryType,omitempty"`
	PostalDeliveryNumber string `json:"postalDeliveryNumber,omitempty" yaml:"postalDeliveryNumber,omitempty" xml:"postalDeliveryNumber,omitempty"`
}

// AustralianStreetAddress is a residential street address.
// StreetType and StreetSuffix are only sent when non-nil.
type AustralianStreetAddress struct {
	UnitGroup       *UnitGroup    `json:"unitGroup,omitempty" yaml:"unitGroup,omitempty" xml:"unitGroup,omitempty"`
	LevelGroup      *LevelGroup   `json:"levelGroup,omitempty" yaml:"levelGroup,omitempty" xml:"levelGroup,omitempty"`
	AddressSiteName string        `json:"addressSiteName,omitempty" yaml:"addressSiteName,omitempty" xml:"addressSiteName,omitempty"`
	StreetNumber    string        `json:"streetNumber,omitempty" yaml:"streetNumber,omitempty" xml:"streetNumber,omitempty"`
	LotNumber       string        `json:"lotNumber,omitempty" yaml:"lotNumber,omitempty" xml:"lotNumber,omitempty"`
	StreetName      string        `json:"streetName,omitempty" yaml:"streetName,omitempty" xml:"streetName,omitempty"`
	StreetType      *StreetType   `json:"streetType,omitempty" yaml:"streetType,omitempty" xml:"streetType,omitempty"`
	StreetSuffix    *StreetSuffix `json:"streetSuffix,omitempty" yaml:"streetSuffix,omitempty" xml:"streetSuffix,omitempty"`
	Suburb          string        `json:"suburb,omitempty" yaml:"suburb,omitempty" xml:"suburb,omitempty"`
	State           State         `json:"state,omitempty" yaml:"state,omitempty" xml:"state,omitempty"`
	Postcode        string        `json:"postcode,omitempty" yaml:"postcode,omitempty" xml:"postcode,omitempty"`
}

// UnitGroup is a flat, unit or suite within a building
type UnitGroup struct {
	UnitType   string `json:"unitType,omitempty" yaml:"unitType,omitempty" xml:"unitType,omitempty"`
	UnitNumber string `json:"unitNumber,omitempty" yaml:"unitNumber,omitempty" xml:"unitNumber,omitempty"`
}

// LevelGroup is a floor or level within a building
type LevelGroup struct {
	LevelType   string `json:"levelType,omitempty" yaml:"levelType,omitempty" xml:"levelType,omitempty"`
	LevelNumber string `json:"levelNumber,omitempty" yaml:"levelNumber,omitempty" xml:"levelNumber,omitempty"`
}

// StreetType is an AS4590 street type code, e.g. "ST", "RD", "AV"
type StreetType string

// StreetSuffix is an AS4590 street suffix code, e.g. "N", "E", "CN"
type StreetSuffix string

// InternationalAddress is an address outside Australia; all fields are mandatory
type InternationalAddress struct {
	InternationalAddressLine   string `json:"internationalAddressLine,omitempty" yaml:"internationalAddressLine,omitempty" xml:"internationalAddressLine,omitempty"`
	InternationalStateProvince string `json:"internationalStateProvince,omitempty" yaml:"internationalStateProvince,omitempty" xml:"internationalStateProvince,omitempty"`
	InternationalPostcode      string `json:"internationalPostcode,omitempty" yaml:"internationalPostcode,omitempty" xml:"internationalPostcode,omitempty"`
	Country                    string `json:"country,omitempty" yaml:"country,omitempty" xml:"country,omitempty"`
}

// clone returns a deep copy, so that a batch entry cannot be changed through
// pointers still held by the caller.
func (c SearchCriteria) clone() SearchCriteria {
	r := c
	if c.History != nil {
		h := *c.History
		r.History = &h
	}
	if pa := c.AustralianPostalAddress; pa != nil {
		cp := *pa
		if pa.PostalDeliveryGroup != nil {
			g := *pa.PostalDeliveryGroup
			cp.PostalDeliveryGroup = &g
		}
		r.AustralianPostalAddress = &cp
	}
	if sa := c.AustralianStreetAddress; sa != nil {
		cp := *sa
		if sa.UnitGroup != nil {
			g := *sa.UnitGroup
			cp.UnitGroup = &g
		}
		if sa.LevelGroup != nil {
			g := *sa.LevelGroup
			cp.LevelGroup = &g
		}
		if sa.StreetType != nil {
			st := *sa.StreetType
			cp.StreetType = &st
		}
		if sa.StreetSuffix != nil {
			ss := *sa.StreetSuffix
			cp.StreetSuffix = &ss
		}
		r.AustralianStreetAddress = &cp
	}
	if ia := c.InternationalAddress; ia != nil {
		cp := *ia
		r.InternationalAddress = &cp
	}
	return r
}
