// modern_collection.go - collection-level operations: insert, find-one,
// upsert, and index reconciliation. This is the entire surface writer
// and indexmgr call through; the teacher's Count/Remove/Update/Bulk/
// FindId/RemoveAll/UpdateAll/Pipe/Run/Indexes have no caller here.
//
// Filter and update documents arrive as github.com/globalsign/mgo/bson.M
// (docvalue.ToBSON's output) or []interface{}/native scalars nested
// inside one. The official driver's default bson codecs encode any
// map[string]interface{}-shaped value and any []interface{} by kind, so
// these pass straight through without a conversion step.

package mgo

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Insert inserts one or more documents. The official driver assigns an
// ObjectID _id to any document that doesn't already carry one.
func (c *ModernColl) Insert(docs ...interface{}) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if len(docs) == 1 {
		_, err := c.mgoColl.InsertOne(ctx, docs[0])
		return err
	}
	_, err := c.mgoColl.InsertMany(ctx, docs)
	return err
}

// Find starts a query against the collection. A nil query matches
// every document.
func (c *ModernColl) Find(query interface{}) *ModernQ {
	filter := interface{}(bson.M{})
	if query != nil {
		filter = query
	}
	return &ModernQ{coll: c, filter: filter}
}

// EnsureIndex creates an index, honoring the "-field" = descending
// convention in index.Key. An unset Name lets the server fall back to
// its default field1_1_field2_-1 naming, which DropIndex's caller
// (indexmgr) relies on to resolve the same name without a round trip.
func (c *ModernColl) EnsureIndex(index Index) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var keys bson.D
	for _, key := range index.Key {
		order := 1
		fieldName := key
		if strings.HasPrefix(key, "-") {
			order = -1
			fieldName = key[1:]
		}
		keys = append(keys, bson.E{Key: fieldName, Value: order})
	}

	indexOptions := &options.IndexOptions{
		Unique:     &index.Unique,
		Background: &index.Background,
		Sparse:     &index.Sparse,
	}
	if index.Name != "" {
		indexOptions.Name = &index.Name
	}
	if index.ExpireAfter > 0 {
		expireAfterSeconds := int32(index.ExpireAfter.Seconds())
		indexOptions.ExpireAfterSeconds = &expireAfterSeconds
	}

	_, err := c.mgoColl.Indexes().CreateOne(ctx, mongodrv.IndexModel{Keys: keys, Options: indexOptions})
	return err
}

// DropIndex drops the index with the given name. Added alongside
// EnsureIndex so indexmgr can reconcile a desired index set against
// what a collection already has; the teacher never needed this half.
func (c *ModernColl) DropIndex(name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := c.mgoColl.Indexes().DropOne(ctx, name)
	return err
}

// Upsert updates the first document matching selector, inserting it if
// none matches. update is always a fully-formed $-operator document in
// this module (docbuilder.BuildModifierUpdate never emits a bare
// replacement document), so unlike the teacher's Update/UpdateAll it is
// passed straight through without a $set-wrapping step.
func (c *ModernColl) Upsert(selector, update interface{}) (*ChangeInfo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Update().SetUpsert(true)
	result, err := c.mgoColl.UpdateOne(ctx, selector, update, opts)
	if err != nil {
		return nil, err
	}

	changeInfo := &ChangeInfo{
		Updated: int(result.ModifiedCount),
		Matched: int(result.MatchedCount),
	}
	if result.UpsertedID != nil {
		changeInfo.UpsertedId = result.UpsertedID
	}
	return changeInfo, nil
}
