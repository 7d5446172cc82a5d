package authroles

import (
	domainauth "github.com/rowhq/fieldproof/internal/domain/auth"
)

// StaticRoleMapper maps groups by simple string membership rules.
type StaticRoleMapper struct {
	AdminGroup     string
	AppraiserGroup string
}

func (m StaticRoleMapper) Map(groups []string) domainauth.Role {
	for _, g := range groups {
		if m.AdminGroup != "" && g == m.AdminGroup {
			return domainauth.RoleAdmin
		}
	}
	for _, g := range groups {
		if m.AppraiserGroup != "" && g == m.AppraiserGroup {
			return domainauth.RoleAppraiser
		}
	}
	return domainauth.RoleGuest
}
