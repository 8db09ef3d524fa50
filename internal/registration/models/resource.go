package models

import (
	"time"

	id "landrec/pkg/domain"
	dErrors "landrec/pkg/domain-errors"
)

// ResourceKind names the recordable subject variants.
type ResourceKind string

const (
	ResourceKindRealEstate  ResourceKind = "real_estate"
	ResourceKindAssociation ResourceKind = "association"
	ResourceKindNoProperty  ResourceKind = "no_property"
)

func (k ResourceKind) IsValid() bool {
	switch k {
	case ResourceKindRealEstate, ResourceKindAssociation, ResourceKindNoProperty:
		return true
	}
	return false
}

// UIDPrefix returns the public identifier prefix for the kind.
func (k ResourceKind) UIDPrefix() string {
	switch k {
	case ResourceKindAssociation:
		return id.UIDPrefixAssociation
	case ResourceKindNoProperty:
		return id.UIDPrefixNoProperty
	default:
		return id.UIDPrefixRealEstate
	}
}

type ResourceStatus string

const (
	ResourceStatusActive  ResourceStatus = "active"
	ResourceStatusDeleted ResourceStatus = "deleted"
	ResourceStatusMerged  ResourceStatus = "merged"
)

// Resource is a recordable subject. Resources are never removed; deletion and
// merging are status changes.
type Resource struct {
	ID          id.ResourceID
	UID         string
	Kind        ResourceKind
	Status      ResourceStatus
	Description string
	// PartitionOf and MergedInto are only set on real estate.
	PartitionOf *id.ResourceID
	MergedInto  *id.ResourceID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewResource validates the kind and returns an active resource.
func NewResource(resourceID id.ResourceID, kind ResourceKind, description string, now time.Time) (*Resource, error) {
	if !kind.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unknown resource kind: "+string(kind))
	}
	return &Resource{
		ID:          resourceID,
		UID:         id.NewUID(kind.UIDPrefix()),
		Kind:        kind,
		Status:      ResourceStatusActive,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// NewPartition creates a child real estate carved out of parent.
func NewPartition(resourceID id.ResourceID, parent *Resource, description string, now time.Time) (*Resource, error) {
	if parent.Kind != ResourceKindRealEstate {
		return nil, dErrors.New(dErrors.CodeValidation, "only real estate can be partitioned")
	}
	child, err := NewResource(resourceID, ResourceKindRealEstate, description, now)
	if err != nil {
		return nil, err
	}
	parentID := parent.ID
	child.PartitionOf = &parentID
	return child, nil
}

func (r *Resource) IsActive() bool {
	return r.Status == ResourceStatusActive
}

// CanMergeInto checks a real estate merge into another active real estate.
func (r *Resource) CanMergeInto(target *Resource) error {
	if r.Kind != ResourceKindRealEstate || target.Kind != ResourceKindRealEstate {
		return dErrors.New(dErrors.CodeValidation, "only real estate can be merged")
	}
	if r.ID == target.ID {
		return dErrors.New(dErrors.CodeValidation, "a resource cannot be merged into itself")
	}
	if !r.IsActive() || !target.IsActive() {
		return dErrors.New(dErrors.CodeValidation, "both resources must be active to merge").
			WithDetail("status", string(r.Status)).
			WithDetail("target_status", string(target.Status))
	}
	return nil
}

func (r *Resource) ApplyMerge(target id.ResourceID, now time.Time) {
	r.Status = ResourceStatusMerged
	r.MergedInto = &target
	r.UpdatedAt = now
}

func (r *Resource) ApplyDelete(now time.Time) {
	r.Status = ResourceStatusDeleted
	r.UpdatedAt = now
}
