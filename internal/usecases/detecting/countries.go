package detecting

import "strings"

var countryCodes = map[string]string{
	"argentina":            "AR",
	"australia":            "AU",
	"austria":              "AT",
	"bangladesh":           "BD",
	"belgium":              "BE",
	"bolivia":              "BO",
	"brazil":               "BR",
	"brasil":               "BR",
	"canada":               "CA",
	"chile":                "CL",
	"china":                "CN",
	"colombia":             "CO",
	"costa rica":           "CR",
	"czech republic":       "CZ",
	"czechia":              "CZ",
	"denmark":              "DK",
	"dominican republic":   "DO",
	"ecuador":              "EC",
	"egypt":                "EG",
	"finland":              "FI",
	"france":               "FR",
	"germany":              "DE",
	"greece":               "GR",
	"guatemala":            "GT",
	"hong kong":            "HK",
	"hungary":              "HU",
	"india":                "IN",
	"indonesia":            "ID",
	"ireland":              "IE",
	"israel":               "IL",
	"italy":                "IT",
	"japan":                "JP",
	"kenya":                "KE",
	"malaysia":             "MY",
	"mexico":               "MX",
	"morocco":              "MA",
	"netherlands":          "NL",
	"new zealand":          "NZ",
	"nigeria":              "NG",
	"norway":               "NO",
	"pakistan":             "PK",
	"panama":               "PA",
	"paraguay":             "PY",
	"peru":                 "PE",
	"philippines":          "PH",
	"poland":               "PL",
	"portugal":             "PT",
	"romania":              "RO",
	"russia":               "RU",
	"saudi arabia":         "SA",
	"singapore":            "SG",
	"south africa":         "ZA",
	"south korea":          "KR",
	"spain":                "ES",
	"sweden":               "SE",
	"switzerland":          "CH",
	"taiwan":               "TW",
	"thailand":             "TH",
	"turkey":               "TR",
	"ukraine":              "UA",
	"united arab emirates": "AE",
	"united kingdom":       "GB",
	"united states":        "US",
	"uruguay":              "UY",
	"venezuela":            "VE",
	"vietnam":              "VN",
}

// CountryCode converte o nome do país para ISO 3166-1 alfa-2.
// Códigos de duas letras passam direto; nomes desconhecidos voltam como vieram.
func CountryCode(country string) string {
	trimmed := strings.TrimSpace(country)
	if len(trimmed) == 2 {
		return strings.ToUpper(trimmed)
	}
	if code, ok := countryCodes[strings.ToLower(trimmed)]; ok {
		return code
	}
	return trimmed
}
