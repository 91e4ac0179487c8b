// Package registry holds the JSON:API shapes the LEI registry speaks.
package registry

import (
	"bytes"
	"encoding/json"
	"errors"
)

const (
	TypeLEIRecord          = "lei-records"
	TypeReportingException = "reporting-exceptions"
	TypeRelationshipRecord = "relationship-records"
	TypeFuzzyCompletion    = "fuzzycompletions"
)

const (
	RelDirectParent   = "direct-parent"
	RelUltimateParent = "ultimate-parent"
	RelDirectChildren = "direct-children"
	RelStartNode      = "start-node"
	RelEndNode        = "end-node"
)

var (
	ErrNoData   = errors.New("document has no data")
	ErrNotFound = errors.New("registry resource not found")
)

// Document is the JSON:API envelope every registry response uses.
type Document struct {
	Meta  Meta            `json:"meta"`
	Links PageLinks       `json:"links"`
	Data  json.RawMessage `json:"data"`
}

type Meta struct {
	GoldenCopy struct {
		PublishDate string `json:"publishDate"`
	} `json:"goldenCopy"`
	Pagination struct {
		CurrentPage int `json:"currentPage"`
		PerPage     int `json:"perPage"`
		From        int `json:"from"`
		To          int `json:"to"`
		Total       int `json:"total"`
		LastPage    int `json:"lastPage"`
	} `json:"pagination"`
}

type PageLinks struct {
	First string `json:"first"`
	Next  string `json:"next"`
	Last  string `json:"last"`
}

// IsEmpty reports a missing, null or empty-array data member.
func (d *Document) IsEmpty() bool {
	data := bytes.TrimSpace(d.Data)
	return len(data) == 0 || bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte("[]"))
}

// One decodes the data member as a single resource.
func (d *Document) One() (*Resource, error) {
	if d.IsEmpty() {
		return nil, ErrNoData
	}
	var r Resource
	if err := json.Unmarshal(d.Data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Many splits the data member into its raw elements so each one can be
// parsed independently. A single object yields a one element slice.
func (d *Document) Many() ([]json.RawMessage, error) {
	if d.IsEmpty() {
		return nil, nil
	}
	data := bytes.TrimSpace(d.Data)
	if data[0] == '{' {
		return []json.RawMessage{data}, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

type Resource struct {
	Type          string                  `json:"type"`
	ID            string                  `json:"id"`
	Attributes    json.RawMessage         `json:"attributes"`
	Relationships map[string]Relationship `json:"relationships"`
	Links         struct {
		Self string `json:"self"`
	} `json:"links"`
}

// HasAttributes reports whether the resource carries a non-null attributes object.
func (r *Resource) HasAttributes() bool {
	a := bytes.TrimSpace(r.Attributes)
	return len(a) > 0 && !bytes.Equal(a, []byte("null"))
}

// RelationshipLinks returns the link bundle of a named relationship, or nil.
func (r *Resource) RelationshipLinks(name string) *RelationshipLinks {
	rel, ok := r.Relationships[name]
	if !ok {
		return nil
	}
	return &rel.Links
}

type Relationship struct {
	Links RelationshipLinks `json:"links"`
}

type RelationshipLinks struct {
	Related             string `json:"related"`
	LEIRecord           string `json:"lei-record"`
	RelationshipRecord  string `json:"relationship-record"`
	RelationshipRecords string `json:"relationship-records"`
	ReportingException  string `json:"reporting-exception"`
}

func (l *RelationshipLinks) Empty() bool {
	return l == nil || (l.Related == "" && l.LEIRecord == "" && l.RelationshipRecord == "" &&
		l.RelationshipRecords == "" && l.ReportingException == "")
}

type LEIAttributes struct {
	LEI          string     `json:"lei"`
	Entity       *LEIEntity `json:"entity"`
	Registration struct {
		InitialRegistrationDate string `json:"initialRegistrationDate"`
		LastUpdateDate          string `json:"lastUpdateDate"`
		Status                  string `json:"status"`
		NextRenewalDate         string `json:"nextRenewalDate"`
		ManagingLOU             string `json:"managingLou"`
		CorroborationLevel      string `json:"corroborationLevel"`
	} `json:"registration"`
	BIC StringList `json:"bic"`
}

type LEIEntity struct {
	LegalName struct {
		Name     string `json:"name"`
		Language string `json:"language"`
	} `json:"legalName"`
	LegalAddress        *LEIAddress `json:"legalAddress"`
	HeadquartersAddress *LEIAddress `json:"headquartersAddress"`
	RegisteredAt        struct {
		ID    string `json:"id"`
		Other string `json:"other"`
	} `json:"registeredAt"`
	RegisteredAs string `json:"registeredAs"`
	Jurisdiction string `json:"jurisdiction"`
	Category     string `json:"category"`
	LegalForm    struct {
		ID    string `json:"id"`
		Other string `json:"other"`
	} `json:"legalForm"`
	Status       string `json:"status"`
	CreationDate string `json:"creationDate"`
}

type LEIAddress struct {
	Language     string   `json:"language"`
	AddressLines []string `json:"addressLines"`
	City         string   `json:"city"`
	Region       string   `json:"region"`
	Country      string   `json:"country"`
	PostalCode   string   `json:"postalCode"`
}

type ExceptionAttributes struct {
	LEI       string `json:"lei"`
	Category  string `json:"category"`
	Reason    string `json:"reason"`
	Reference string `json:"reference"`
	ValidFrom string `json:"validFrom"`
	ValidTo   string `json:"validTo"`
}

type RelationshipRecordAttributes struct {
	Relationship struct {
		StartNode struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		} `json:"startNode"`
		EndNode struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		} `json:"endNode"`
		Type   string `json:"type"`
		Status string `json:"status"`
	} `json:"relationship"`
}

// StringList accepts either a JSON string or an array of strings; the
// registry has shipped both shapes for bic.
type StringList []string

func (s *StringList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = nil
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var one string
		if err := json.Unmarshal(b, &one); err != nil {
			return err
		}
		if one == "" {
			*s = nil
		} else {
			*s = StringList{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*s = many
	return nil
}

// Completion is one entry of the fuzzy completion endpoint.
type Completion struct {
	Value string
	LEI   string
}
