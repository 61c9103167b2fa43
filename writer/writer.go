// Package writer turns a produced artifact (insert document, modifier
// update, or query) into the actual store calls against a
// mgo-API-compatible collection handle.
package writer

import (
	"context"
	"errors"

	mgo "github.com/rowdoc/core"
	"github.com/rowdoc/core/docvalue"
)

// Collection is the write-layer's collaborator contract. Production code
// wires *MgoCollection (an adapter over *mgo.ModernColl) and tests wire a
// fake, without a live MongoDB.
type Collection interface {
	FindOne(ctx context.Context, query interface{}) (bool, error)
	Upsert(ctx context.Context, selector, update interface{}) (*mgo.ChangeInfo, error)
	Insert(ctx context.Context, docs ...interface{}) error
}

// MgoCollection adapts *mgo.ModernColl (the kept/adapted teacher type)
// to the Collection contract. The teacher's own methods manage their own
// per-call timeouts (modern_collection.go, modern_query.go); ctx is
// accepted here for callers that want to race it against their own
// cancellation, but it is not yet threaded through the teacher's calls.
type MgoCollection struct {
	Coll *mgo.ModernColl
}

// NewMgoCollection wraps an existing ModernColl.
func NewMgoCollection(coll *mgo.ModernColl) *MgoCollection {
	return &MgoCollection{Coll: coll}
}

// FindOne reports whether at least one document matches query,
// satisfying docbuilder.ExistenceProbe.
func (m *MgoCollection) FindOne(ctx context.Context, query interface{}) (bool, error) {
	var doc map[string]interface{}
	err := m.Coll.Find(query).One(&doc)
	if err != nil {
		if errors.Is(err, mgo.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Upsert delegates to the teacher's Upsert (modern_collection.go),
// which already performs an update-with-upsert-true against the
// official driver.
func (m *MgoCollection) Upsert(ctx context.Context, selector, update interface{}) (*mgo.ChangeInfo, error) {
	return m.Coll.Upsert(selector, update)
}

// Insert delegates to the teacher's Insert (modern_collection.go).
func (m *MgoCollection) Insert(ctx context.Context, docs ...interface{}) error {
	return m.Coll.Insert(docs...)
}

// ExistenceProbe adapts a Collection to docbuilder.ExistenceProbe,
// converting a *docvalue.Node query into the bson.M the driver expects.
type ExistenceProbe struct {
	Coll Collection
}

// FindOne converts query to bson and asks the wrapped Collection.
func (p *ExistenceProbe) FindOne(ctx context.Context, query *docvalue.Node) (bool, error) {
	return p.Coll.FindOne(ctx, docvalue.ToBSON(query))
}

// Apply executes one row's worth of work against coll, dispatching on
// which artifacts were produced: a plain insert document goes through
// Insert, a modifier update goes through Upsert keyed by the query
// document. A non-nil modifierDoc takes precedence over insertDoc; when
// both are nil (EmptyRow, spec.md §7), Apply is a no-op.
func Apply(ctx context.Context, coll Collection, query, insertDoc, modifierDoc *docvalue.Node) (*mgo.ChangeInfo, error) {
	switch {
	case modifierDoc != nil:
		if query == nil {
			return nil, errors.New("writer: modifier update requires a query document")
		}
		return coll.Upsert(ctx, docvalue.ToBSON(query), docvalue.ToBSON(modifierDoc))
	case insertDoc != nil:
		return nil, coll.Insert(ctx, docvalue.ToBSON(insertDoc))
	default:
		return nil, nil
	}
}
