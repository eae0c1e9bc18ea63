package hiservice

import (
	"github.com/wardle/hiservice/ihi"
)

// fakeIHI is returned for any search that does not itself name an IHI
const fakeIHI = "8003608833357361"

// performFake returns deterministic results for each request, echoing back the criteria
func performFake(requests []ihi.Request) []SearchResult {
	results := make([]SearchResult, len(requests))
	for i, r := range requests {
		number := fakeIHI
		if r.Search.IHINumber != "" {
			number = r.Search.IHINumber
		}
		results[i] = SearchResult{
			RequestIdentifier:  r.RequestIdentifier,
			IHINumber:          number,
			IHIStatus:          "Active",
			IHIRecordStatus:    "Verified",
			MedicareCardNumber: r.Search.MedicareCardNumber,
			MedicareIRN:        r.Search.MedicareIRN,
			DVAFileNumber:      r.Search.DVAFileNumber,
			FamilyName:         r.Search.FamilyName,
			GivenName:          r.Search.GivenName,
			DateOfBirth:        r.Search.DateOfBirth,
			Sex:                r.Search.Sex,
		}
	}
	return results
}

var fakeReferenceData = map[string][]ReferenceValue{
	"providerTypeCode": {
		{Code: "Individual", Description: "Individual healthcare provider"},
		{Code: "Organisation", Description: "Healthcare provider organisation"},
	},
	"sex": {
		{Code: string(ihi.SexMale), Description: ihi.SexMale.Name()},
		{Code: string(ihi.SexFemale), Description: ihi.SexFemale.Name()},
		{Code: string(ihi.SexIntersex), Description: ihi.SexIntersex.Name()},
		{Code: string(ihi.SexNotStated), Description: ihi.SexNotStated.Name()},
	},
}

func performFakeReferenceData(elementNames []string) map[string]ReferenceData {
	result := make(map[string]ReferenceData, len(elementNames))
	for _, name := range elementNames {
		values, ok := fakeReferenceData[name]
		if !ok {
			values = []ReferenceValue{{Code: "FAKE", Description: "Fake value for " + name}}
		}
		result[name] = ReferenceData{ElementName: name, Values: append([]ReferenceValue(nil), values...)}
	}
	return result
}
