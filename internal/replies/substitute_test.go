package replies

import (
	"strings"
	"testing"
)

func TestSubstituteResolvesKnownTokens(t *testing.T) {
	t.Parallel()

	vars := map[string]string{
		TokenCompanyName: "Acme",
		TokenDisplayName: "Sara",
	}
	got := Substitute("hello {display_name}, welcome to {company_name}", vars)
	if got != "hello Sara, welcome to Acme" {
		t.Fatalf("unexpected substitution: %q", got)
	}
}

func TestSubstituteLeavesUnknownTokens(t *testing.T) {
	t.Parallel()

	got := Substitute("{company_name} {unknown_token}", map[string]string{TokenCompanyName: "Acme"})
	if got != "Acme {unknown_token}" {
		t.Fatalf("unknown token must pass through, got %q", got)
	}
}

func TestSubstituteEmptyVars(t *testing.T) {
	t.Parallel()

	template := "{company_name} untouched"
	if got := Substitute(template, nil); got != template {
		t.Fatalf("expected template unchanged, got %q", got)
	}
}

func TestSubstitutionVarsResolveNestedCompanyName(t *testing.T) {
	t.Parallel()

	doc := DefaultDocument()
	vars := SubstitutionVars(doc, "Sara")
	if strings.Contains(vars[TokenWelcomeText], TokenCompanyName) {
		t.Fatalf("welcome text must not keep the company token: %q", vars[TokenWelcomeText])
	}
	if !strings.Contains(vars[TokenWelcomeText], doc.CompanyName) {
		t.Fatalf("welcome text missing company name: %q", vars[TokenWelcomeText])
	}
	if !strings.Contains(vars[TokenMainMenu], doc.CompanyName) {
		t.Fatalf("main menu missing company name: %q", vars[TokenMainMenu])
	}
	if vars[TokenDisplayName] != "Sara" {
		t.Fatalf("unexpected display name: %q", vars[TokenDisplayName])
	}
}
