package pipeline

import (
	"encoding/json"
	"strings"

	"github.com/Hupka/fuzzy-supplier-finder/internal/core/domain"
	"github.com/Hupka/fuzzy-supplier-finder/internal/core/registry"
)

// ParseCompany converts one raw lei-records resource into a CompanyRecord.
// It returns nil for anything that is not a usable entity payload.
func ParseCompany(raw json.RawMessage) *domain.CompanyRecord {
	var res registry.Resource
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil
	}
	return CompanyFromResource(&res)
}

// CompanyFromResource is ParseCompany for an already decoded resource.
func CompanyFromResource(res *registry.Resource) *domain.CompanyRecord {
	if res == nil || !res.HasAttributes() {
		return nil
	}
	var attrs registry.LEIAttributes
	if err := json.Unmarshal(res.Attributes, &attrs); err != nil || attrs.Entity == nil {
		return nil
	}
	e := attrs.Entity

	lei := res.ID
	if lei == "" {
		lei = attrs.LEI
	}

	rec := &domain.CompanyRecord{
		LEI:                     lei,
		LegalName:               e.LegalName.Name,
		Jurisdiction:            e.Jurisdiction,
		EntityStatus:            e.Status,
		RegistrationStatus:      domain.RegistrationStatus(attrs.Registration.Status),
		EntityCategory:          e.Category,
		InitialRegistrationDate: attrs.Registration.InitialRegistrationDate,
		LastUpdateDate:          attrs.Registration.LastUpdateDate,
		NextRenewalDate:         attrs.Registration.NextRenewalDate,
		BIC:                     []string{},
	}

	if e.LegalAddress != nil {
		a := e.LegalAddress
		rec.Address = FormatAddress(strings.Join(a.AddressLines, ", "), a.City, a.Region, a.Country, a.PostalCode)
	}
	if e.HeadquartersAddress != nil {
		a := e.HeadquartersAddress
		if hq := FormatAddress(strings.Join(a.AddressLines, ", "), a.City, a.Region, a.PostalCode, a.Country); hq != "" {
			rec.HeadquartersAddress = &hq
		}
	}

	if code := strings.TrimSpace(e.LegalForm.ID); code != "" {
		rec.LegalFormCode = code
		rec.LegalForm = code
		if other := strings.TrimSpace(e.LegalForm.Other); other != "" {
			rec.LegalForm = code + " - " + other
		}
	}

	rec.RegistrationAuthority = e.RegisteredAt.ID
	if rec.RegistrationAuthority == "" {
		rec.RegistrationAuthority = e.RegisteredAt.Other
	}

	for _, b := range attrs.BIC {
		if b = strings.TrimSpace(b); b != "" {
			rec.BIC = append(rec.BIC, b)
		}
	}

	rec.DirectParent = parentDescriptor(res.RelationshipLinks(registry.RelDirectParent))
	rec.UltimateParent = parentDescriptor(res.RelationshipLinks(registry.RelUltimateParent))
	rec.DirectChildren = childrenDescriptor(res.RelationshipLinks(registry.RelDirectChildren))

	return rec
}

// ParseException converts one raw reporting-exceptions resource.
func ParseException(raw json.RawMessage) *domain.ReportingException {
	var res registry.Resource
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil
	}
	return ExceptionFromResource(&res)
}

func ExceptionFromResource(res *registry.Resource) *domain.ReportingException {
	if res == nil || !res.HasAttributes() {
		return nil
	}
	var attrs registry.ExceptionAttributes
	if err := json.Unmarshal(res.Attributes, &attrs); err != nil || attrs.Reason == "" {
		return nil
	}
	return &domain.ReportingException{
		Category:   attrs.Category,
		ReasonCode: domain.ExceptionReason(attrs.Reason),
		ValidFrom:  attrs.ValidFrom,
		ValidTo:    attrs.ValidTo,
		Reference:  attrs.Reference,
	}
}

// FormatAddress joins the non-empty parts with ", ".
func FormatAddress(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

func parentDescriptor(l *registry.RelationshipLinks) *domain.ParentDescriptor {
	if l.Empty() {
		return nil
	}
	d := &domain.ParentDescriptor{
		EntityLink:       l.LEIRecord,
		ExceptionLink:    l.ReportingException,
		RelationshipLink: l.RelationshipRecord,
	}
	if d.Empty() {
		return nil
	}
	return d
}

func childrenDescriptor(l *registry.RelationshipLinks) *domain.ChildrenDescriptor {
	if l.Empty() || (l.Related == "" && l.RelationshipRecords == "") {
		return nil
	}
	return &domain.ChildrenDescriptor{
		ListingLink:       l.Related,
		RelationshipsLink: l.RelationshipRecords,
	}
}
