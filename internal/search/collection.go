package search

import (
	"fmt"

	"github.com/nao1215/ransomwatch/internal/model"
)

// Result is one filtered collection of a snapshot.
type Result struct {
	// Collection is the collection name.
	Collection string `json:"collection"`

	// Query is the filter that was applied.
	Query string `json:"query,omitempty"`

	// Total is the collection size before filtering.
	Total int `json:"total"`

	// Items are the matching records in collection order.
	Items []model.Record `json:"items"`
}

// Collection filters the named collection of snapshot by query.
func Collection(snapshot *model.Snapshot, name, query string) (Result, error) {
	res := Result{Collection: name, Query: query}

	switch name {
	case model.CollectionVictims:
		res.Total, res.Items = len(snapshot.Victims), records(Filter(snapshot.Victims, query))
	case model.CollectionAttacks:
		res.Total, res.Items = len(snapshot.Attacks), records(Filter(snapshot.Attacks, query))
	case model.CollectionTargetVictims:
		res.Total, res.Items = len(snapshot.TargetVictims), records(Filter(snapshot.TargetVictims, query))
	case model.CollectionTargetAttacks:
		res.Total, res.Items = len(snapshot.TargetAttacks), records(Filter(snapshot.TargetAttacks, query))
	case model.CollectionRegionVictims:
		res.Total, res.Items = len(snapshot.RegionVictims), records(Filter(snapshot.RegionVictims, query))
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownCollection, name)
	}
	return res, nil
}

// records converts a typed slice to records.
func records[R model.Record](items []R) []model.Record {
	out := make([]model.Record, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}
