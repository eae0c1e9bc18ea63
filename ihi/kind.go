package ihi

import "strings"

// Kind represents one of the mutually exclusive kinds of IHI search
type Kind int

// List of search kinds
const (
	KindUnknown                 Kind = iota // unknown
	KindBasic                               // IHI number with demographics
	KindBasicMedicare                       // Medicare card number with demographics
	KindBasicDVA                            // DVA file number with demographics
	KindDetailed                            // demographics only
	KindAustralianPostalAddress             // demographics with a postal address
	KindAustralianStreetAddress             // demographics with a street address
	KindInternationalAddress                // demographics with an international address
	lastKind
)

var kindNames = [...]string{
	"unknown",
	"basic",
	"basic-medicare",
	"basic-dva",
	"detailed",
	"australian-postal-address",
	"australian-street-address",
	"international-address",
}

var kindLookup map[string]Kind

func init() {
	kindLookup = make(map[string]Kind)
	for k := KindBasic; k < lastKind; k++ {
		kindLookup[kindNames[k]] = k
		kindLookup[strings.ReplaceAll(kindNames[k], "-", "")] = k
	}
}

// String returns the name of this kind of search, e.g. "basic-medicare"
func (k Kind) String() string {
	if k < KindUnknown || k >= lastKind {
		return kindNames[KindUnknown]
	}
	return kindNames[k]
}

// Kinds returns all of the supported kinds of search
func Kinds() []Kind {
	result := make([]Kind, 0, lastKind-1)
	for k := KindBasic; k < lastKind; k++ {
		result = append(result, k)
	}
	return result
}

// LookupKind returns the kind of search for the name specified, e.g. "basic", "BasicMedicare"
// or "australian-street-address". Returns KindUnknown if there is no match.
func LookupKind(name string) Kind {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, "_", "-")
	if k, ok := kindLookup[s]; ok {
		return k
	}
	return KindUnknown
}

// MarshalText implements encoding.TextMarshaler
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *Kind) UnmarshalText(text []byte) error {
	kind := LookupKind(string(text))
	if kind == KindUnknown {
		return &unknownKindError{name: string(text)}
	}
	*k = kind
	return nil
}
