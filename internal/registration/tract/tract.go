// Package tract builds the ordered chain of title for a resource.
//
// The index is derived on every call from the current recording acts. It
// never caches and never writes; a caller that needs a view consistent with
// its own pending writes must read through the same transaction.
package tract

import (
	"context"
	"sort"

	"landrec/internal/registration/models"
	id "landrec/pkg/domain"
)

// Reader is the persistence the index needs.
type Reader interface {
	// ListActsByResource returns non-deleted acts where the resource is the
	// principal or the related subject, in no particular order.
	ListActsByResource(ctx context.Context, resourceID id.ResourceID) ([]*models.RecordingAct, error)
	FindLandRecord(ctx context.Context, landRecordID id.LandRecordID) (*models.LandRecord, error)
}

// Entry is one act of a tract together with the land record that orders it.
type Entry struct {
	Act        *models.RecordingAct
	LandRecord *models.LandRecord
}

type Index struct {
	reader Reader
}

func New(reader Reader) *Index {
	return &Index{reader: reader}
}

// GetRecordingActs returns the acts where the resource is the principal subject.
func (ix *Index) GetRecordingActs(ctx context.Context, resourceID id.ResourceID) ([]Entry, error) {
	full, err := ix.GetFullTractIndex(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(full))
	for _, e := range full {
		if e.Act.ResourceID == resourceID {
			out = append(out, e)
		}
	}
	return out, nil
}

// GetFullTractIndex returns every act where the resource is principal or
// related, oldest first.
func (ix *Index) GetFullTractIndex(ctx context.Context, resourceID id.ResourceID) ([]Entry, error) {
	acts, err := ix.reader.ListActsByResource(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	records := make(map[id.LandRecordID]*models.LandRecord)
	entries := make([]Entry, 0, len(acts))
	for _, act := range acts {
		if !act.IsActive() || !act.InvolvesResource(resourceID) {
			continue
		}
		lr, ok := records[act.LandRecordID]
		if !ok {
			lr, err = ix.reader.FindLandRecord(ctx, act.LandRecordID)
			if err != nil {
				return nil, err
			}
			records[act.LandRecordID] = lr
		}
		entries = append(entries, Entry{Act: act, LandRecord: lr})
	}
	Sort(entries)
	return entries, nil
}

// GetRecordingActsUntil returns the full tract up to the first occurrence of
// breakAct. When breakAct is not in the tract the whole tract is returned.
func (ix *Index) GetRecordingActsUntil(ctx context.Context, resourceID id.ResourceID, breakAct id.RecordingActID, includeBreak bool) ([]Entry, error) {
	full, err := ix.GetFullTractIndex(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	return Until(full, breakAct, includeBreak), nil
}

// Sort orders entries by land record effective time, then land record UID,
// then act index.
func Sort(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return Less(entries[i], entries[j])
	})
}

// Less is the tract order.
func Less(a, b Entry) bool {
	ta, tb := a.LandRecord.EffectiveTime(), b.LandRecord.EffectiveTime()
	if !ta.Equal(tb) {
		return ta.Before(tb)
	}
	if a.LandRecord.UID != b.LandRecord.UID {
		return a.LandRecord.UID < b.LandRecord.UID
	}
	return a.Act.Index < b.Act.Index
}

// Until truncates an ordered tract at breakAct.
func Until(entries []Entry, breakAct id.RecordingActID, includeBreak bool) []Entry {
	for i, e := range entries {
		if e.Act.ID == breakAct {
			if includeBreak {
				return entries[:i+1]
			}
			return entries[:i]
		}
	}
	return entries
}

// Acts strips the land records off a tract.
func Acts(entries []Entry) []*models.RecordingAct {
	out := make([]*models.RecordingAct, len(entries))
	for i, e := range entries {
		out[i] = e.Act
	}
	return out
}
