package gnews

import "strings"

// Languages maps supported Google News language codes to display names.
var Languages = map[string]string{
	"en":      "English",
	"hi":      "Hindi",
	"te":      "Telugu",
	"ta":      "Tamil",
	"ml":      "Malayalam",
	"bn":      "Bengali",
	"mr":      "Marathi",
	"id":      "Indonesian",
	"cs":      "Czech",
	"de":      "German",
	"es-419":  "Spanish",
	"fr":      "French",
	"it":      "Italian",
	"lv":      "Latvian",
	"lt":      "Lithuanian",
	"hu":      "Hungarian",
	"nl":      "Dutch",
	"no":      "Norwegian",
	"pl":      "Polish",
	"pt-419":  "Portuguese (Brazil)",
	"pt-150":  "Portuguese (Portugal)",
	"ro":      "Romanian",
	"sk":      "Slovak",
	"sl":      "Slovenian",
	"sv":      "Swedish",
	"vi":      "Vietnamese",
	"tr":      "Turkish",
	"el":      "Greek",
	"bg":      "Bulgarian",
	"ru":      "Russian",
	"sr":      "Serbian",
	"uk":      "Ukrainian",
	"he":      "Hebrew",
	"ar":      "Arabic",
	"th":      "Thai",
	"zh-Hans": "Chinese (Simplified)",
	"zh-Hant": "Chinese (Traditional)",
	"ja":      "Japanese",
	"ko":      "Korean",
}

// Countries maps supported Google News country codes to display names.
var Countries = map[string]string{
	"AU": "Australia",
	"BW": "Botswana",
	"CA": "Canada",
	"ET": "Ethiopia",
	"GH": "Ghana",
	"IN": "India",
	"ID": "Indonesia",
	"IE": "Ireland",
	"IL": "Israel",
	"KE": "Kenya",
	"LV": "Latvia",
	"MY": "Malaysia",
	"NA": "Namibia",
	"NZ": "New Zealand",
	"NG": "Nigeria",
	"PK": "Pakistan",
	"PH": "Philippines",
	"SG": "Singapore",
	"ZA": "South Africa",
	"TZ": "Tanzania",
	"UG": "Uganda",
	"GB": "United Kingdom",
	"US": "United States",
	"ZW": "Zimbabwe",
	"CZ": "Czech Republic",
	"DE": "Germany",
	"AT": "Austria",
	"CH": "Switzerland",
	"AR": "Argentina",
	"CL": "Chile",
	"CO": "Colombia",
	"CU": "Cuba",
	"MX": "Mexico",
	"PE": "Peru",
	"VE": "Venezuela",
	"BE": "Belgium",
	"FR": "France",
	"MA": "Morocco",
	"SN": "Senegal",
	"IT": "Italy",
	"LT": "Lithuania",
	"HU": "Hungary",
	"NL": "Netherlands",
	"NO": "Norway",
	"PL": "Poland",
	"BR": "Brazil",
	"PT": "Portugal",
	"RO": "Romania",
	"SK": "Slovakia",
	"SI": "Slovenia",
	"SE": "Sweden",
	"VN": "Vietnam",
	"TR": "Turkey",
	"GR": "Greece",
	"BG": "Bulgaria",
	"RU": "Russia",
	"UA": "Ukraine",
	"RS": "Serbia",
	"AE": "United Arab Emirates",
	"SA": "Saudi Arabia",
	"LB": "Lebanon",
	"EG": "Egypt",
	"BD": "Bangladesh",
	"TH": "Thailand",
	"CN": "China",
	"TW": "Taiwan",
	"HK": "Hong Kong",
	"JP": "Japan",
	"KR": "Republic of Korea",
}

// Periods maps supported recency filters to display names.
var Periods = map[string]string{
	"1h":  "Past hour",
	"12h": "Past 12 hours",
	"1d":  "Past day",
	"3d":  "Past 3 days",
	"7d":  "Past week",
	"1m":  "Past month",
}

// NormalizeLanguage resolves a language code case-insensitively to its
// canonical form.
func NormalizeLanguage(code string) (string, bool) {
	return normalize(code, Languages)
}

// NormalizeCountry resolves a country code case-insensitively to its
// canonical form.
func NormalizeCountry(code string) (string, bool) {
	return normalize(code, Countries)
}

// NormalizePeriod resolves a period value case-insensitively to its
// canonical form.
func NormalizePeriod(period string) (string, bool) {
	return normalize(period, Periods)
}

func normalize(code string, supported map[string]string) (string, bool) {
	code = strings.TrimSpace(code)
	if _, ok := supported[code]; ok {
		return code, true
	}
	for canonical := range supported {
		if strings.EqualFold(canonical, code) {
			return canonical, true
		}
	}
	return "", false
}
