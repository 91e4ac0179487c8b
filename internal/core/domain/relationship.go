package domain

type LinkKind int

const (
	LinkNone         LinkKind = iota
	LinkEntity                // lei-record
	LinkException             // reporting-exception
	LinkRelationship          // relationship-record
	LinkListing               // related (children listing)
)

func (k LinkKind) String() string {
	switch k {
	case LinkEntity:
		return "lei-record"
	case LinkException:
		return "reporting-exception"
	case LinkRelationship:
		return "relationship-record"
	case LinkListing:
		return "related"
	default:
		return "none"
	}
}

type Link struct {
	Kind LinkKind
	URL  string
}

func (l Link) IsZero() bool {
	return l.Kind == LinkNone || l.URL == ""
}

// ParentDescriptor holds the sub-links the registry reported for a parent
// relationship. The raw payload may carry more than one of them.
type ParentDescriptor struct {
	EntityLink       string `json:"entityLink,omitempty"`
	ExceptionLink    string `json:"exceptionLink,omitempty"`
	RelationshipLink string `json:"relationshipLink,omitempty"`
}

// Preferred collapses the descriptor into the single link to resolve:
// entity link first, then the exception link, then the relationship record.
func (d *ParentDescriptor) Preferred() Link {
	switch {
	case d == nil:
		return Link{}
	case d.EntityLink != "":
		return Link{Kind: LinkEntity, URL: d.EntityLink}
	case d.ExceptionLink != "":
		return Link{Kind: LinkException, URL: d.ExceptionLink}
	case d.RelationshipLink != "":
		return Link{Kind: LinkRelationship, URL: d.RelationshipLink}
	}
	return Link{}
}

func (d *ParentDescriptor) HasParent() bool {
	k := d.Preferred().Kind
	return k == LinkEntity || k == LinkRelationship
}

func (d *ParentDescriptor) HasException() bool {
	return d.Preferred().Kind == LinkException
}

func (d *ParentDescriptor) Empty() bool {
	return d.Preferred().IsZero()
}

type ChildrenDescriptor struct {
	ListingLink       string `json:"listingLink,omitempty"`
	RelationshipsLink string `json:"relationshipsLink,omitempty"`
}

func (d *ChildrenDescriptor) Listing() Link {
	if d == nil || d.ListingLink == "" {
		return Link{}
	}
	return Link{Kind: LinkListing, URL: d.ListingLink}
}

type ResolutionKind int

const (
	ResolvedEntity ResolutionKind = iota + 1
	ResolvedException
)

// Resolution is the outcome of following a relationship link. A nil
// *Resolution means no data is available.
type Resolution struct {
	Kind      ResolutionKind
	Record    *CompanyRecord
	Exception *ReportingException
}

func EntityResolution(rec *CompanyRecord) *Resolution {
	return &Resolution{Kind: ResolvedEntity, Record: rec}
}

func ExceptionResolution(exc *ReportingException) *Resolution {
	return &Resolution{Kind: ResolvedException, Exception: exc}
}
