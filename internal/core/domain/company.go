package domain

import (
	"fmt"
	"strings"
)

type RegistrationStatus string

const (
	RegistrationIssued            RegistrationStatus = "ISSUED"
	RegistrationLapsed            RegistrationStatus = "LAPSED"
	RegistrationMerged            RegistrationStatus = "MERGED"
	RegistrationRetired           RegistrationStatus = "RETIRED"
	RegistrationAnnulled          RegistrationStatus = "ANNULLED"
	RegistrationDuplicate         RegistrationStatus = "DUPLICATE"
	RegistrationTransferred       RegistrationStatus = "TRANSFERRED"
	RegistrationPendingArchival   RegistrationStatus = "PENDING_ARCHIVAL"
	RegistrationPendingValidation RegistrationStatus = "PENDING_VALIDATION"
	RegistrationActive            RegistrationStatus = "ACTIVE"
)

var registrationStatusLabels = map[RegistrationStatus]string{
	RegistrationIssued:            "Issued",
	RegistrationLapsed:            "Lapsed",
	RegistrationMerged:            "Merged",
	RegistrationRetired:           "Retired",
	RegistrationAnnulled:          "Annulled",
	RegistrationDuplicate:         "Duplicate",
	RegistrationTransferred:       "Transferred",
	RegistrationPendingArchival:   "Pending archival",
	RegistrationPendingValidation: "Pending validation",
	RegistrationActive:            "Active",
}

// Label returns the human readable status; unknown values pass through.
func (s RegistrationStatus) Label() string {
	if l, ok := registrationStatusLabels[s]; ok {
		return l
	}
	return string(s)
}

// CompanyRecord is a resolved registry entity.
type CompanyRecord struct {
	LEI                     string             `json:"lei"`
	LegalName               string             `json:"legalName"`
	Address                 string             `json:"address"`
	Jurisdiction            string             `json:"jurisdiction"`
	EntityStatus            string             `json:"entityStatus"`
	RegistrationStatus      RegistrationStatus `json:"registrationStatus"`
	LegalForm               string             `json:"legalForm"` // "<code>" or "<code> - <other>"
	LegalFormCode           string             `json:"legalFormCode,omitempty"`
	EntityCategory          string             `json:"entityCategory"`
	RegistrationAuthority   string             `json:"registrationAuthority"`
	InitialRegistrationDate string             `json:"initialRegistrationDate"`
	LastUpdateDate          string             `json:"lastUpdateDate"`
	NextRenewalDate         string             `json:"nextRenewalDate"`
	BIC                     []string           `json:"bic"`
	HeadquartersAddress     *string            `json:"headquartersAddress,omitempty"`

	DirectParent   *ParentDescriptor   `json:"directParent,omitempty"`
	UltimateParent *ParentDescriptor   `json:"ultimateParent,omitempty"`
	DirectChildren *ChildrenDescriptor `json:"directChildren,omitempty"`

	// Filled only by the exception prefetch after a manual retry.
	DirectParentException   *ReportingException `json:"directParentException,omitempty"`
	UltimateParentException *ReportingException `json:"ultimateParentException,omitempty"`
}

func (c *CompanyRecord) HasDirectParent() bool {
	return c.DirectParent != nil && c.DirectParent.HasParent()
}

func (c *CompanyRecord) HasUltimateParent() bool {
	return c.UltimateParent != nil && c.UltimateParent.HasParent()
}

func (c *CompanyRecord) HasDirectParentException() bool {
	return c.DirectParent != nil && c.DirectParent.HasException()
}

func (c *CompanyRecord) HasUltimateParentException() bool {
	return c.UltimateParent != nil && c.UltimateParent.HasException()
}

func (c *CompanyRecord) HasChildren() bool {
	return c.DirectChildren != nil && c.DirectChildren.ListingLink != ""
}

// LegalFormLabel renders the legal form with the code replaced by its name when known.
func (c *CompanyRecord) LegalFormLabel() string {
	if c.LegalFormCode == "" {
		return c.LegalForm
	}
	label := LegalFormName(c.LegalFormCode)
	if rest, ok := strings.CutPrefix(c.LegalForm, c.LegalFormCode); ok {
		return label + rest
	}
	return label
}

func (c *CompanyRecord) RegistrationStatusLabel() string {
	return c.RegistrationStatus.Label()
}

// Clone returns a copy that shares no slices or pointers with c.
func (c *CompanyRecord) Clone() *CompanyRecord {
	if c == nil {
		return nil
	}
	out := *c
	out.BIC = append([]string(nil), c.BIC...)
	if c.HeadquartersAddress != nil {
		hq := *c.HeadquartersAddress
		out.HeadquartersAddress = &hq
	}
	if c.DirectParent != nil {
		d := *c.DirectParent
		out.DirectParent = &d
	}
	if c.UltimateParent != nil {
		d := *c.UltimateParent
		out.UltimateParent = &d
	}
	if c.DirectChildren != nil {
		d := *c.DirectChildren
		out.DirectChildren = &d
	}
	if c.DirectParentException != nil {
		e := *c.DirectParentException
		out.DirectParentException = &e
	}
	if c.UltimateParentException != nil {
		e := *c.UltimateParentException
		out.UltimateParentException = &e
	}
	return &out
}

// String returns a string representation of the record
func (c *CompanyRecord) String() string {
	return fmt.Sprintf("%s: %s (%s, %s)", c.LEI, c.LegalName, c.Jurisdiction, c.RegistrationStatus)
}
