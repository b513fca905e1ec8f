package replies

import "strings"

// Placeholder tokens recognized by Substitute.
const (
	TokenCompanyName = "{company_name}"
	TokenWelcomeText = "{welcome_text}"
	TokenContactInfo = "{contact_info}"
	TokenMainMenu    = "{main_menu}"
	TokenDisplayName = "{display_name}"
)

// Substitute resolves placeholder tokens in template against vars.
// Tokens absent from vars pass through literally. The function is pure:
// it reads nothing but its arguments.
func Substitute(template string, vars map[string]string) string {
	if template == "" || len(vars) == 0 {
		return template
	}
	pairs := make([]string, 0, len(vars)*2)
	for token, value := range vars {
		pairs = append(pairs, token, value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// SubstitutionVars builds the fixed token map from the live document plus the
// sender's display name.
func SubstitutionVars(doc Document, displayName string) map[string]string {
	return map[string]string{
		TokenCompanyName: doc.CompanyName,
		TokenWelcomeText: strings.ReplaceAll(doc.WelcomeText, TokenCompanyName, doc.CompanyName),
		TokenContactInfo: doc.ContactInfo,
		TokenMainMenu:    strings.ReplaceAll(doc.Menus[MenuMain], TokenCompanyName, doc.CompanyName),
		TokenDisplayName: displayName,
	}
}
