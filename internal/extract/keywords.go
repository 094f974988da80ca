package extract

import (
	"fmt"
	"strings"
)

// keywordCategories maps CCPA personal-data categories to the terms whose
// presence in policy text researchers track.
var keywordCategories = map[string][]string{
	"identifiers": {
		"real name", "alias", "postal address", "address",
		"unique personal identifier", "online identifier", "ip address",
		"email address", "email", "account name", "social security number",
		"driver license number", "passport number",
	},
	"customer records information": {
		"name", "signature", "social security number", "ssn",
		"physical characteristics", "address", "telephone number",
		"phone number", "passport number", "drivers license",
		"state identification card number", "insurance policy number",
		"education", "employment", "employment history", "bank account number",
		"credit card number", "debit card number", "financial information",
		"medical information", "health insurance information",
	},
	"characteristics of protected classifications": {
		"race", "ancestry", "national origin", "religion", "age",
		"mental and physical disability", "sex", "sexual orientation",
		"gender identity", "medical condition", "genetic information",
		"marital status", "military status",
	},
	"commercial information": {
		"personal property", "products purchased", "services purchased",
		"purchasing histories", "consuming histories",
	},
	"internet or other electronic network activity information": {
		"browsing history", "search history",
		"interaction with a website, application, or advertisement",
	},
	"geolocation data": {"geolocation data", "location information", "gps"},
	"sensory data":    {"audio", "electronic", "visual", "thermal", "olfactory"},
	"professional or employment-related information": {
		"employment information", "professional information",
	},
	"education information": {
		"family educational rights and privacy act", "education", "school",
	},
	"inferences": {
		"psychological trends", "predispositions", "behavior", "attitudes",
		"intelligence", "aptitude",
	},
}

// Keywords scans the visible page text for the personal-data category terms
// and returns, per category, the terms actually mentioned. Categories with no
// hits are omitted.
func Keywords(markup string) (any, error) {
	text, err := Text(markup)
	if err != nil {
		return nil, fmt.Errorf("extract text for keyword scan: %w", err)
	}
	haystack := strings.ToLower(text)

	hits := make(map[string][]string)
	for category, terms := range keywordCategories {
		for _, term := range terms {
			if strings.Contains(haystack, term) {
				hits[category] = append(hits[category], term)
			}
		}
	}
	return hits, nil
}
