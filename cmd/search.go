package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/wardle/hiservice/ihi"
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <kind>",
	Args:  cobra.ExactArgs(1),
	Short: "Search for a single individual healthcare identifier (IHI)",
	Long: `Search for a single individual healthcare identifier (IHI).

The kind of search determines which criteria may be given:

hiservice search basic --ihi 8003608833357361 --family SMITH --dob 1980-01-01 --sex M
hiservice search basic-medicare --medicare 2123456701 --irn 1 --family SMITH --dob 1980-01-01 --sex M
hiservice search detailed --family SMITH --given JOHN --dob 1980-01-01 --sex M
hiservice search australian-street-address --family SMITH --dob 1980-01-01 --sex M \
    --street-number 12 --street-name EXAMPLE --street-type ST --suburb HOBART --state TAS --postcode 7000
`,
	Run: func(cmd *cobra.Command, args []string) {
		kind := ihi.LookupKind(args[0])
		if kind == ihi.KindUnknown {
			log.Fatalf("%s: '%s' (must be one of %s)", ihi.ErrUnknownKind, args[0], kindList())
		}
		c, err := criteriaFromFlags(kind, cmd.Flags())
		if err != nil {
			log.Fatal(err)
		}
		id, _ := cmd.Flags().GetString("id")
		batch := ihi.NewBatch()
		if err := batch.Add(kind, id, c); err != nil {
			log.Fatal(err)
		}
		app := newApp()
		results, err := app.SearchIHIBatch(context.Background(), batch)
		if err != nil {
			log.Fatal(err)
		}
		printOutput(results[0])
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	addSearchFlags(searchCmd.Flags())
}

func addSearchFlags(fs *pflag.FlagSet) {
	fs.String("id", "", "Request identifier (default generated)")

	fs.String("ihi", "", "IHI number")
	fs.String("medicare", "", "Medicare card number")
	fs.String("irn", "", "Medicare individual reference number")
	fs.String("dva", "", "DVA file number")
	fs.Bool("history", false, "Search historical demographics")

	fs.String("family", "", "Family name")
	fs.String("given", "", "Given name")
	fs.String("dob", "", "Date of birth (YYYY-MM-DD)")
	fs.String("sex", "", "Sex: M, F, I or N")

	fs.String("delivery-type", "", "Postal delivery type, e.g. 'PO BOX'")
	fs.String("delivery-number", "", "Postal delivery number")

	fs.String("unit-type", "", "Unit type, e.g. 'U'")
	fs.String("unit-number", "", "Unit number")
	fs.String("level-type", "", "Level type, e.g. 'L'")
	fs.String("level-number", "", "Level number")
	fs.String("site-name", "", "Address site name")
	fs.String("street-number", "", "Street number")
	fs.String("lot-number", "", "Lot number")
	fs.String("street-name", "", "Street name")
	fs.String("street-type", "", "Street type, e.g. 'ST'")
	fs.String("street-suffix", "", "Street suffix, e.g. 'N'")

	fs.String("suburb", "", "Suburb")
	fs.String("state", "", "State or territory, e.g. 'NSW'")
	fs.String("postcode", "", "Postcode")

	fs.String("address-line", "", "International address line")
	fs.String("province", "", "International state or province")
	fs.String("international-postcode", "", "International postcode")
	fs.String("country", "", "Country")
}

var (
	postalFlags        = []string{"delivery-type", "delivery-number"}
	streetFlags        = []string{"unit-type", "unit-number", "level-type", "level-number", "site-name", "street-number", "lot-number", "street-name", "street-type", "street-suffix"}
	internationalFlags = []string{"address-line", "province", "international-postcode", "country"}
)

// criteriaFromFlags builds search criteria from command-line flags.
// An address is built when the kind of search requires one, or when any of its
// own flags are given, so that the validator can reject it for other kinds.
func criteriaFromFlags(kind ihi.Kind, fs *pflag.FlagSet) (ihi.SearchCriteria, error) {
	var err error
	get := func(name string) string {
		v, e := fs.GetString(name)
		if e != nil && err == nil {
			err = e
		}
		return strings.TrimSpace(v)
	}
	c := ihi.SearchCriteria{
		IHINumber:          get("ihi"),
		MedicareCardNumber: get("medicare"),
		MedicareIRN:        get("irn"),
		DVAFileNumber:      get("dva"),
		FamilyName:         get("family"),
		GivenName:          get("given"),
		DateOfBirth:        get("dob"),
	}
	if s := get("sex"); s != "" {
		c.Sex = ihi.LookupSex(s)
		if c.Sex == "" {
			return c, fmt.Errorf("invalid sex: '%s'", s)
		}
	}
	if fs.Changed("history") {
		h, e := fs.GetBool("history")
		if e != nil {
			return c, e
		}
		c.History = &h
	}
	if kind == ihi.KindAustralianPostalAddress || anyChanged(fs, postalFlags) {
		c.AustralianPostalAddress = &ihi.AustralianPostalAddress{
			Suburb:   get("suburb"),
			State:    ihi.State(strings.ToUpper(get("state"))),
			Postcode: get("postcode"),
		}
		if anyChanged(fs, postalFlags) {
			c.AustralianPostalAddress.PostalDeliveryGroup = &ihi.PostalDeliveryGroup{
				PostalDeliveryType:   get("delivery-type"),
				PostalDeliveryNumber: get("delivery-number"),
			}
		}
	}
	if kind == ihi.KindAustralianStreetAddress || anyChanged(fs, streetFlags) {
		sa := &ihi.AustralianStreetAddress{
			AddressSiteName: get("site-name"),
			StreetNumber:    get("street-number"),
			LotNumber:       get("lot-number"),
			StreetName:      get("street-name"),
			Suburb:          get("suburb"),
			State:           ihi.State(strings.ToUpper(get("state"))),
			Postcode:        get("postcode"),
		}
		if anyChanged(fs, []string{"unit-type", "unit-number"}) {
			sa.UnitGroup = &ihi.UnitGroup{UnitType: get("unit-type"), UnitNumber: get("unit-number")}
		}
		if anyChanged(fs, []string{"level-type", "level-number"}) {
			sa.LevelGroup = &ihi.LevelGroup{LevelType: get("level-type"), LevelNumber: get("level-number")}
		}
		if st := get("street-type"); st != "" {
			v := ihi.StreetType(strings.ToUpper(st))
			sa.StreetType = &v
		}
		if ss := get("street-suffix"); ss != "" {
			v := ihi.StreetSuffix(strings.ToUpper(ss))
			sa.StreetSuffix = &v
		}
		c.AustralianStreetAddress = sa
	}
	if kind == ihi.KindInternationalAddress || anyChanged(fs, internationalFlags) {
		c.InternationalAddress = &ihi.InternationalAddress{
			InternationalAddressLine:   get("address-line"),
			InternationalStateProvince: get("province"),
			InternationalPostcode:      get("international-postcode"),
			Country:                    get("country"),
		}
	}
	return c, err
}

func anyChanged(fs *pflag.FlagSet, names []string) bool {
	for _, name := range names {
		if fs.Changed(name) {
			return true
		}
	}
	return false
}

func kindList() string {
	kinds := ihi.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return strings.Join(names, ", ")
}
