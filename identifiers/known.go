package identifiers

// list of built-in supported systems (although extendable at runtime and by importing other packages)
const (
	// Australian healthcare identifiers, as issued by the HI Service
	IHI  = "http://ns.electronichealth.net.au/id/hi/ihi/1.0"
	HPII = "http://ns.electronichealth.net.au/id/hi/hpii/1.0"
	HPIO = "http://ns.electronichealth.net.au/id/hi/hpio/1.0"

	// Services Australia
	MedicareCardNumber = "http://ns.electronichealth.net.au/id/medicare-card-number/1.0"
	MedicareIRN        = "http://ns.electronichealth.net.au/id/medicare-irn/1.0"
	DVAFileNumber      = "http://ns.electronichealth.net.au/id/dva/1.0"

	// qualifiers used in the HI Service header blocks
	VendorQualifier = "http://ns.electronichealth.net.au/id/hi/vendorid/1.0"
	UserQualifier   = "http://ns.electronichealth.net.au/id/hi/userid/1.0" // fallback only; organisations register their own
)
