package domain

import "strings"

// GoogleIdentity is the verified subset of a Google ID token the service relies on.
type GoogleIdentity struct {
	Subject    string
	Email      string
	Name       string
	Picture    string
	GivenName  string
	FamilyName string
}

// DisplayName picks the best available nickname for a newly created account.
func (g GoogleIdentity) DisplayName() string {
	switch {
	case g.Name != "":
		return g.Name
	case g.GivenName != "" && g.FamilyName != "":
		return g.GivenName + " " + g.FamilyName
	case g.GivenName != "":
		return g.GivenName
	}
	if at := strings.IndexByte(g.Email, '@'); at > 0 {
		return g.Email[:at]
	}
	return g.Email
}
