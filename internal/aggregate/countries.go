package aggregate

import "sort"

// CountryInfo is the presentation record for one ISO-3166 alpha-2 code.
type CountryInfo struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Flag string `json:"flag"`
}

// countryMaster keys the markets the storefronts ship to. Unknown codes fall
// back to the bare code in responses.
var countryMaster = map[string]CountryInfo{
	"SA": {Code: "SA", Name: "Saudi Arabia", Flag: "🇸🇦"},
	"AE": {Code: "AE", Name: "United Arab Emirates", Flag: "🇦🇪"},
	"KW": {Code: "KW", Name: "Kuwait", Flag: "🇰🇼"},
	"QA": {Code: "QA", Name: "Qatar", Flag: "🇶🇦"},
	"BH": {Code: "BH", Name: "Bahrain", Flag: "🇧🇭"},
	"OM": {Code: "OM", Name: "Oman", Flag: "🇴🇲"},
	"EG": {Code: "EG", Name: "Egypt", Flag: "🇪🇬"},
	"JO": {Code: "JO", Name: "Jordan", Flag: "🇯🇴"},
	"LB": {Code: "LB", Name: "Lebanon", Flag: "🇱🇧"},
	"IQ": {Code: "IQ", Name: "Iraq", Flag: "🇮🇶"},
	"MA": {Code: "MA", Name: "Morocco", Flag: "🇲🇦"},
	"DZ": {Code: "DZ", Name: "Algeria", Flag: "🇩🇿"},
	"TN": {Code: "TN", Name: "Tunisia", Flag: "🇹🇳"},
	"LY": {Code: "LY", Name: "Libya", Flag: "🇱🇾"},
	"SD": {Code: "SD", Name: "Sudan", Flag: "🇸🇩"},
	"YE": {Code: "YE", Name: "Yemen", Flag: "🇾🇪"},
	"PS": {Code: "PS", Name: "Palestine", Flag: "🇵🇸"},
	"SY": {Code: "SY", Name: "Syria", Flag: "🇸🇾"},
	"TR": {Code: "TR", Name: "Turkey", Flag: "🇹🇷"},
	"US": {Code: "US", Name: "United States", Flag: "🇺🇸"},
	"GB": {Code: "GB", Name: "United Kingdom", Flag: "🇬🇧"},
	"DE": {Code: "DE", Name: "Germany", Flag: "🇩🇪"},
	"FR": {Code: "FR", Name: "France", Flag: "🇫🇷"},
	"ES": {Code: "ES", Name: "Spain", Flag: "🇪🇸"},
	"IT": {Code: "IT", Name: "Italy", Flag: "🇮🇹"},
	"NL": {Code: "NL", Name: "Netherlands", Flag: "🇳🇱"},
	"SE": {Code: "SE", Name: "Sweden", Flag: "🇸🇪"},
	"CH": {Code: "CH", Name: "Switzerland", Flag: "🇨🇭"},
	"AT": {Code: "AT", Name: "Austria", Flag: "🇦🇹"},
	"BE": {Code: "BE", Name: "Belgium", Flag: "🇧🇪"},
	"IE": {Code: "IE", Name: "Ireland", Flag: "🇮🇪"},
	"CA": {Code: "CA", Name: "Canada", Flag: "🇨🇦"},
	"AU": {Code: "AU", Name: "Australia", Flag: "🇦🇺"},
	"NZ": {Code: "NZ", Name: "New Zealand", Flag: "🇳🇿"},
	"IN": {Code: "IN", Name: "India", Flag: "🇮🇳"},
	"PK": {Code: "PK", Name: "Pakistan", Flag: "🇵🇰"},
	"BD": {Code: "BD", Name: "Bangladesh", Flag: "🇧🇩"},
	"ID": {Code: "ID", Name: "Indonesia", Flag: "🇮🇩"},
	"MY": {Code: "MY", Name: "Malaysia", Flag: "🇲🇾"},
	"SG": {Code: "SG", Name: "Singapore", Flag: "🇸🇬"},
	"PH": {Code: "PH", Name: "Philippines", Flag: "🇵🇭"},
	"TH": {Code: "TH", Name: "Thailand", Flag: "🇹🇭"},
	"VN": {Code: "VN", Name: "Vietnam", Flag: "🇻🇳"},
	"JP": {Code: "JP", Name: "Japan", Flag: "🇯🇵"},
	"KR": {Code: "KR", Name: "South Korea", Flag: "🇰🇷"},
	"CN": {Code: "CN", Name: "China", Flag: "🇨🇳"},
	"HK": {Code: "HK", Name: "Hong Kong", Flag: "🇭🇰"},
	"BR": {Code: "BR", Name: "Brazil", Flag: "🇧🇷"},
	"MX": {Code: "MX", Name: "Mexico", Flag: "🇲🇽"},
	"AR": {Code: "AR", Name: "Argentina", Flag: "🇦🇷"},
	"CL": {Code: "CL", Name: "Chile", Flag: "🇨🇱"},
	"CO": {Code: "CO", Name: "Colombia", Flag: "🇨🇴"},
	"ZA": {Code: "ZA", Name: "South Africa", Flag: "🇿🇦"},
	"NG": {Code: "NG", Name: "Nigeria", Flag: "🇳🇬"},
	"KE": {Code: "KE", Name: "Kenya", Flag: "🇰🇪"},
	"ET": {Code: "ET", Name: "Ethiopia", Flag: "🇪🇹"},
	"RU": {Code: "RU", Name: "Russia", Flag: "🇷🇺"},
	"UA": {Code: "UA", Name: "Ukraine", Flag: "🇺🇦"},
	"PL": {Code: "PL", Name: "Poland", Flag: "🇵🇱"},
	"PT": {Code: "PT", Name: "Portugal", Flag: "🇵🇹"},
	"GR": {Code: "GR", Name: "Greece", Flag: "🇬🇷"},
	"AZ": {Code: "AZ", Name: "Azerbaijan", Flag: "🇦🇿"},
	"KZ": {Code: "KZ", Name: "Kazakhstan", Flag: "🇰🇿"},
	"AF": {Code: "AF", Name: "Afghanistan", Flag: "🇦🇫"},
	"IR": {Code: "IR", Name: "Iran", Flag: "🇮🇷"},
}

// CountryMaster looks up the presentation record for an ISO2 code.
func CountryMaster(code string) (CountryInfo, bool) {
	info, ok := countryMaster[code]
	return info, ok
}

// AllCountries returns the full master, sorted by name.
func AllCountries() []CountryInfo {
	out := make([]CountryInfo, 0, len(countryMaster))
	for _, info := range countryMaster {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
