package ihi

import (
	"time"
	"unicode/utf8"
)

// RequestIdentifierLength is the exact length of a request (correlation) identifier, when supplied.
const RequestIdentifierLength = 36

const requestIdentifierPath = "requestIdentifier"

// field is a named, nil-safe presence test over SearchCriteria
type field struct {
	path    string
	present func(c *SearchCriteria) bool
}

func text(path string, get func(c *SearchCriteria) string) field {
	return field{path: path, present: func(c *SearchCriteria) bool { return get(c) != "" }}
}

var (
	fieldIHINumber          = text("search.ihiNumber", func(c *SearchCriteria) string { return c.IHINumber })
	fieldMedicareCardNumber = text("search.medicareCardNumber", func(c *SearchCriteria) string { return c.MedicareCardNumber })
	fieldMedicareIRN        = text("search.medicareIRN", func(c *SearchCriteria) string { return c.MedicareIRN })
	fieldDVAFileNumber      = text("search.dvaFileNumber", func(c *SearchCriteria) string { return c.DVAFileNumber })
	fieldFamilyName         = text("search.familyName", func(c *SearchCriteria) string { return c.FamilyName })
	fieldGivenName          = text("search.givenName", func(c *SearchCriteria) string { return c.GivenName })
	fieldDateOfBirth        = text("search.dateOfBirth", func(c *SearchCriteria) string { return c.DateOfBirth })
	fieldSex                = text("search.sex", func(c *SearchCriteria) string { return string(c.Sex) })
	fieldHistory            = field{"search.history", func(c *SearchCriteria) bool { return c.History != nil }}

	fieldPostalAddress = field{"search.australianPostalAddress", func(c *SearchCriteria) bool { return c.AustralianPostalAddress != nil }}
	fieldPostalGroup   = field{"search.australianPostalAddress.postalDeliveryGroup", func(c *SearchCriteria) bool {
		return c.AustralianPostalAddress != nil && c.AustralianPostalAddress.PostalDeliveryGroup != nil
	}}
	fieldPostalType = postal("postalDeliveryGroup.postalDeliveryType", func(a *AustralianPostalAddress) string {
		if a.PostalDeliveryGroup == nil {
			return ""
		}
		return a.PostalDeliveryGroup.PostalDeliveryType
	})
	fieldPostalSuburb   = postal("suburb", func(a *AustralianPostalAddress) string { return a.Suburb })
	fieldPostalPostcode = postal("postcode", func(a *AustralianPostalAddress) string { return a.Postcode })

	fieldStreetAddress   = field{"search.australianStreetAddress", func(c *SearchCriteria) bool { return c.AustralianStreetAddress != nil }}
	fieldStreetPostcode  = street("postcode", func(a *AustralianStreetAddress) string { return a.Postcode })
	fieldStreetSuburb    = street("suburb", func(a *AustralianStreetAddress) string { return a.Suburb })
	fieldStreetName      = street("streetName", func(a *AustralianStreetAddress) string { return a.StreetName })
	fieldStreetNumber    = street("streetNumber", func(a *AustralianStreetAddress) string { return a.StreetNumber })
	fieldStreetLotNumber = street("lotNumber", func(a *AustralianStreetAddress) string { return a.LotNumber })
	fieldUnitType        = unit("unitType", func(g *UnitGroup) string { return g.UnitType })
	fieldUnitNumber      = unit("unitNumber", func(g *UnitGroup) string { return g.UnitNumber })
	fieldLevelType       = level("levelType", func(g *LevelGroup) string { return g.LevelType })
	fieldLevelNumber     = level("levelNumber", func(g *LevelGroup) string { return g.LevelNumber })
	fieldInternational   = field{"search.internationalAddress", func(c *SearchCriteria) bool { return c.InternationalAddress != nil }}
	fieldIntlAddressLine = international("internationalAddressLine", func(a *InternationalAddress) string { return a.InternationalAddressLine })
	fieldIntlState       = international("internationalStateProvince", func(a *InternationalAddress) string { return a.InternationalStateProvince })
	fieldIntlPostcode    = international("internationalPostcode", func(a *InternationalAddress) string { return a.InternationalPostcode })
	fieldIntlCountry     = international("country", func(a *InternationalAddress) string { return a.Country })
)

func postal(name string, get func(a *AustralianPostalAddress) string) field {
	return field{path: "search.australianPostalAddress." + name, present: func(c *SearchCriteria) bool {
		return c.AustralianPostalAddress != nil && get(c.AustralianPostalAddress) != ""
	}}
}

func street(name string, get func(a *AustralianStreetAddress) string) field {
	return field{path: "search.australianStreetAddress." + name, present: func(c *SearchCriteria) bool {
		return c.AustralianStreetAddress != nil && get(c.AustralianStreetAddress) != ""
	}}
}

// unit and level fields are only checked when their optional group is present
func unit(name string, get func(g *UnitGroup) string) field {
	return field{path: "search.australianStreetAddress.unitGroup." + name, present: func(c *SearchCriteria) bool {
		a := c.AustralianStreetAddress
		return a == nil || a.UnitGroup == nil || get(a.UnitGroup) != ""
	}}
}

func level(name string, get func(g *LevelGroup) string) field {
	return field{path: "search.australianStreetAddress.levelGroup." + name, present: func(c *SearchCriteria) bool {
		a := c.AustralianStreetAddress
		return a == nil || a.LevelGroup == nil || get(a.LevelGroup) != ""
	}}
}

func international(name string, get func(a *InternationalAddress) string) field {
	return field{path: "search.internationalAddress." + name, present: func(c *SearchCriteria) bool {
		return c.InternationalAddress != nil && get(c.InternationalAddress) != ""
	}}
}

// topLevel lists every top-level field of SearchCriteria, in the order in which
// forbidden fields are reported.
var topLevel = []field{
	fieldIHINumber,
	fieldMedicareCardNumber,
	fieldMedicareIRN,
	fieldDVAFileNumber,
	fieldFamilyName,
	fieldGivenName,
	fieldDateOfBirth,
	fieldSex,
	fieldPostalAddress,
	fieldStreetAddress,
	fieldInternational,
	fieldHistory,
}

// rule declares the field-presence profile of one kind of search.
// Any top-level field not named in mandatory or optional is forbidden.
type rule struct {
	mandatory  []field   // checked in order; an address group precedes its sub-fields
	optional   []field   // top-level fields that may be present
	atLeastOne [][]field // each set must have at least one field present
	forbidden  []field   // derived
}

var demographics = []field{fieldFamilyName, fieldDateOfBirth, fieldSex}

func mandatory(fields ...[]field) []field {
	var result []field
	for _, f := range fields {
		result = append(result, f...)
	}
	return result
}

var rules = [lastKind]*rule{
	KindBasic: {
		mandatory: mandatory([]field{fieldIHINumber}, demographics),
		optional:  []field{fieldGivenName},
	},
	KindBasicMedicare: {
		mandatory: mandatory([]field{fieldMedicareCardNumber}, demographics),
		optional:  []field{fieldMedicareIRN, fieldGivenName},
	},
	KindBasicDVA: {
		mandatory: mandatory([]field{fieldDVAFileNumber}, demographics),
		optional:  []field{fieldGivenName},
	},
	KindDetailed: {
		mandatory: demographics,
		optional:  []field{fieldGivenName},
	},
	KindAustralianPostalAddress: {
		mandatory: mandatory(demographics, []field{fieldPostalAddress, fieldPostalGroup, fieldPostalType, fieldPostalSuburb, fieldPostalPostcode}),
		optional:  []field{fieldGivenName},
	},
	KindAustralianStreetAddress: {
		mandatory: mandatory(demographics, []field{fieldStreetAddress, fieldStreetPostcode, fieldStreetSuburb, fieldStreetName,
			fieldUnitType, fieldUnitNumber, fieldLevelType, fieldLevelNumber}),
		optional:   []field{fieldGivenName},
		atLeastOne: [][]field{{fieldStreetNumber, fieldStreetLotNumber}},
	},
	KindInternationalAddress: {
		mandatory: mandatory(demographics, []field{fieldInternational, fieldIntlAddressLine, fieldIntlState, fieldIntlPostcode, fieldIntlCountry}),
		optional:  []field{fieldGivenName},
	},
}

func init() {
	for _, r := range rules {
		if r == nil {
			continue
		}
		allowed := make(map[string]struct{})
		for _, f := range r.mandatory {
			allowed[f.path] = struct{}{}
		}
		for _, f := range r.optional {
			allowed[f.path] = struct{}{}
		}
		for _, f := range topLevel {
			if _, ok := allowed[f.path]; !ok {
				r.forbidden = append(r.forbidden, f)
			}
		}
	}
}

// Validate checks that the request identifier and criteria are acceptable for the
// kind of search specified, returning a *ValidationError describing the first
// violation found. Validate has no side effects.
//
// Checks are made in the following order: request identifier length, mandatory
// fields, date of birth syntax, at-least-one-of constraints and finally forbidden fields.
func Validate(kind Kind, requestIdentifier string, c SearchCriteria) error {
	if kind <= KindUnknown || kind >= lastKind || rules[kind] == nil {
		return &unknownKindError{name: kind.String()}
	}
	r := rules[kind]
	if requestIdentifier != "" && utf8.RuneCountInString(requestIdentifier) != RequestIdentifierLength {
		return &ValidationError{Kind: kind, Violation: InvalidLength, Fields: []string{requestIdentifierPath}, Value: requestIdentifier}
	}
	for _, f := range r.mandatory {
		if !f.present(&c) {
			return &ValidationError{Kind: kind, Violation: Required, Fields: []string{f.path}}
		}
	}
	if _, err := ParseDateOfBirth(c.DateOfBirth); err != nil {
		return &ValidationError{Kind: kind, Violation: InvalidDateTime, Fields: []string{fieldDateOfBirth.path}, Value: c.DateOfBirth}
	}
	for _, set := range r.atLeastOne {
		if !anyPresent(&c, set) {
			paths := make([]string, len(set))
			for i, f := range set {
				paths[i] = f.path
			}
			return &ValidationError{Kind: kind, Violation: AtLeastOneRequired, Fields: paths}
		}
	}
	for _, f := range r.forbidden {
		if f.present(&c) {
			return &ValidationError{Kind: kind, Violation: NotAllowed, Fields: []string{f.path}}
		}
	}
	return nil
}

func anyPresent(c *SearchCriteria, fields []field) bool {
	for _, f := range fields {
		if f.present(c) {
			return true
		}
	}
	return false
}

var dateOfBirthLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
}

// ParseDateOfBirth parses a date of birth given either as an xsd:date (e.g. 1980-01-01)
// or a date-time (e.g. 1980-01-01T00:00:00Z). An empty string returns a zero time.
func ParseDateOfBirth(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	var err error
	for _, layout := range dateOfBirthLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
