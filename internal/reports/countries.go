package reports

import (
	"github.com/pariz/gountries"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// countryIndex is built once at startup; gountries loads its embedded
// dataset on New and is read-only afterwards.
var countryIndex = gountries.New()

// crmCountryName maps a visit-store ISO alpha-2 code to the full English
// country name the CRM stores. Unrecognized codes pass through unchanged.
func crmCountryName(code string) string {
	country, err := countryIndex.FindCountryByAlpha(code)
	if err != nil {
		return code
	}
	return country.Name.Common
}

// visitCountryCode maps a CRM-side country name back to the ISO alpha-2 code
// the visit store uses, so both stores land in the same bucket.
func visitCountryCode(name string) string {
	country, err := countryIndex.FindCountryByName(name)
	if err != nil {
		return name
	}
	return country.Alpha2
}

// countryLabel renders an alpha-2 code as a display name, upper-casing the
// raw code when it is not a known country.
func countryLabel(code string) string {
	country, err := countryIndex.FindCountryByAlpha(code)
	if err != nil {
		return cases.Upper(language.AmericanEnglish).String(code)
	}
	return country.Name.Common
}
