package domain

type ExceptionReason string

const (
	ReasonNaturalPersons          ExceptionReason = "NATURAL_PERSONS"
	ReasonNonConsolidating        ExceptionReason = "NON_CONSOLIDATING"
	ReasonNoKnownPerson           ExceptionReason = "NO_KNOWN_PERSON"
	ReasonNonPublic               ExceptionReason = "NON_PUBLIC"
	ReasonNoLEI                   ExceptionReason = "NO_LEI"
	ReasonBindingLegalCommitments ExceptionReason = "BINDING_LEGAL_COMMITMENTS"
	ReasonLegalObstacles          ExceptionReason = "LEGAL_OBSTACLES"
	ReasonDisclosureDetrimental   ExceptionReason = "DISCLOSURE_DETRIMENTAL"
)

var exceptionReasonLabels = map[ExceptionReason]string{
	ReasonNaturalPersons:          "Controlled by natural person(s)",
	ReasonNonConsolidating:        "Parent does not prepare consolidated financial statements",
	ReasonNoKnownPerson:           "No known person controls the entity",
	ReasonNonPublic:               "Parent information is not public",
	ReasonNoLEI:                   "Parent has no LEI",
	ReasonBindingLegalCommitments: "Disclosure prevented by binding legal commitments",
	ReasonLegalObstacles:          "Disclosure prevented by legal obstacles",
	ReasonDisclosureDetrimental:   "Disclosure would be detrimental to the entity",
}

// Label returns the human readable reason; unknown codes pass through.
func (r ExceptionReason) Label() string {
	if l, ok := exceptionReasonLabels[r]; ok {
		return l
	}
	return string(r)
}

// ReportingException is a disclosed absence of parent data.
type ReportingException struct {
	Category   string          `json:"category"`
	ReasonCode ExceptionReason `json:"reasonCode"`
	ValidFrom  string          `json:"validFrom"`
	ValidTo    string          `json:"validTo,omitempty"`
	Reference  string          `json:"reference,omitempty"`
}
