// modern_types.go - the mgo-shaped handle types this module's storage
// callers (writer, indexmgr, replset, cmd/rowloader) actually use: a
// session, a database, a collection, and a pending find. The teacher's
// wrapper covered the whole mgo API (bulk ops, GridFS, aggregation,
// iterators); this module only ever inserts, upserts and finds one
// document at a time, so that's all that's kept.

package mgo

import (
	"errors"
	"time"

	mongodrv "go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound mirrors mgo.ErrNotFound: returned by One when nothing
// matches the query.
var ErrNotFound = errors.New("mgo: not found")

// Index declares one index in mgo's own shape. Key entries prefixed
// with "-" sort descending, matching EnsureIndex's convention.
type Index struct {
	Key         []string
	Unique      bool
	Background  bool
	Sparse      bool
	Name        string
	ExpireAfter time.Duration
}

// ChangeInfo reports the outcome of an Upsert.
type ChangeInfo struct {
	Updated    int
	Matched    int
	UpsertedId interface{}
}

// ModernMGO is a connected client, scoped to the database named in the
// dial URL unless DB is called with an explicit name.
type ModernMGO struct {
	client *mongodrv.Client
	dbName string
}

// ModernDB is a database handle.
type ModernDB struct {
	mgoDB *mongodrv.Database
}

// ModernColl is a collection handle.
type ModernColl struct {
	mgoColl *mongodrv.Collection
}

// ModernQ is a pending find, built by ModernColl.Find and resolved by
// One. The teacher's Query also offered Sort/Limit/Skip/Select/Iter;
// this module only ever reads the first match.
type ModernQ struct {
	coll   *ModernColl
	filter interface{}
}
