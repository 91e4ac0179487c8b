package domain

import (
	"errors"
	"fmt"
)

// HierarchyView is the ownership graph around one company. It is built
// fresh for every request and never merged with a previous view.
type HierarchyView struct {
	Current                 CompanyRecord       `json:"current"`
	DirectParent            *CompanyRecord      `json:"directParent"`
	DirectParentException   *ReportingException `json:"directParentException"`
	UltimateParent          *CompanyRecord      `json:"ultimateParent"`
	UltimateParentException *ReportingException `json:"ultimateParentException"`
	Children                []CompanyRecord     `json:"children"`
	IsPartial               bool                `json:"isPartial"`
	Errors                  []string            `json:"errors,omitempty"` // one line per failed branch
	Generation              uint64              `json:"generation"`
}

var ErrSlotConflict = errors.New("parent slot holds both an entity and an exception")

// Validate checks that each parent slot carries at most one outcome.
func (v *HierarchyView) Validate() error {
	if v.DirectParent != nil && v.DirectParentException != nil {
		return fmt.Errorf("direct parent: %w", ErrSlotConflict)
	}
	if v.UltimateParent != nil && v.UltimateParentException != nil {
		return fmt.Errorf("ultimate parent: %w", ErrSlotConflict)
	}
	return nil
}

// Entities lists every company in the view that can become the next root.
func (v *HierarchyView) Entities() []CompanyRecord {
	var out []CompanyRecord
	if v.UltimateParent != nil {
		out = append(out, *v.UltimateParent)
	}
	if v.DirectParent != nil {
		out = append(out, *v.DirectParent)
	}
	return append(out, v.Children...)
}

// Find returns the entity with the given LEI among the current root, its parents and children.
func (v *HierarchyView) Find(lei string) (*CompanyRecord, bool) {
	if v.Current.LEI == lei {
		c := v.Current
		return &c, true
	}
	for _, e := range v.Entities() {
		if e.LEI == lei {
			e := e
			return &e, true
		}
	}
	return nil, false
}

// String returns a string representation of the view
func (v *HierarchyView) String() string {
	return fmt.Sprintf("%s [parent=%t ultimate=%t children=%d partial=%t]",
		v.Current.LEI, v.DirectParent != nil, v.UltimateParent != nil, len(v.Children), v.IsPartial)
}
