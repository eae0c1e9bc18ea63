package cmd

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardle/hiservice/ihi"
)

func parseSearchFlags(t *testing.T, args ...string) *pflag.FlagSet {
	fs := pflag.NewFlagSet("search", pflag.ContinueOnError)
	addSearchFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestCriteriaFromFlags(t *testing.T) {
	fs := parseSearchFlags(t, "--ihi", "8003608833357361", "--family", "SMITH", "--dob", "1980-01-01", "--sex", "male")
	c, err := criteriaFromFlags(ihi.KindBasic, fs)
	require.NoError(t, err)
	assert.Equal(t, "8003608833357361", c.IHINumber)
	assert.Equal(t, ihi.SexMale, c.Sex)
	assert.Nil(t, c.History)
	assert.Nil(t, c.AustralianPostalAddress)
	assert.Nil(t, c.AustralianStreetAddress)
	assert.Nil(t, c.InternationalAddress)
	assert.NoError(t, ihi.Validate(ihi.KindBasic, "", c))
}

func TestCriteriaFromFlagsHistory(t *testing.T) {
	fs := parseSearchFlags(t, "--history=false")
	c, err := criteriaFromFlags(ihi.KindDetailed, fs)
	require.NoError(t, err)
	require.NotNil(t, c.History)
	assert.False(t, *c.History)
}

func TestCriteriaFromFlagsStreetAddress(t *testing.T) {
	fs := parseSearchFlags(t, "--family", "SMITH", "--dob", "1980-01-01", "--sex", "F",
		"--unit-type", "U", "--unit-number", "4", "--street-number", "12", "--street-name", "EXAMPLE", "--street-type", "st",
		"--suburb", "HOBART", "--state", "tas", "--postcode", "7000")
	c, err := criteriaFromFlags(ihi.KindAustralianStreetAddress, fs)
	require.NoError(t, err)
	sa := c.AustralianStreetAddress
	require.NotNil(t, sa)
	require.NotNil(t, sa.UnitGroup)
	assert.Equal(t, "4", sa.UnitGroup.UnitNumber)
	assert.Nil(t, sa.LevelGroup)
	require.NotNil(t, sa.StreetType)
	assert.Equal(t, ihi.StreetType("ST"), *sa.StreetType)
	assert.Nil(t, sa.StreetSuffix)
	assert.Equal(t, ihi.StateTAS, sa.State)
	assert.NoError(t, ihi.Validate(ihi.KindAustralianStreetAddress, "", c))
}

func TestCriteriaFromFlagsUnexpectedAddress(t *testing.T) {
	fs := parseSearchFlags(t, "--family", "SMITH", "--dob", "1980-01-01", "--sex", "F", "--country", "NZ")
	c, err := criteriaFromFlags(ihi.KindDetailed, fs)
	require.NoError(t, err)
	require.NotNil(t, c.InternationalAddress)
	err = ihi.Validate(ihi.KindDetailed, "", c)
	assert.ErrorIs(t, err, ihi.ErrForbiddenFieldPresent)
}

func TestCriteriaFromFlagsInvalidSex(t *testing.T) {
	fs := parseSearchFlags(t, "--sex", "X")
	_, err := criteriaFromFlags(ihi.KindDetailed, fs)
	assert.Error(t, err)
}
