// modern_query.go - resolving a pending find. The teacher's Query also
// offered All/Count/Iter/Sort/Limit/Skip/Select/Apply; the only read
// path this module exercises is "does one document matching this filter
// exist / what does it look like", so only One survives.

package mgo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// One decodes the first document matching the query into result,
// returning ErrNotFound when nothing matches. The official driver's own
// decoder handles result being a map, a struct with bson tags, or
// anything else bson-codec-aware, so no intermediate conversion step is
// needed here.
func (q *ModernQ) One(result interface{}) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := q.coll.mgoColl.FindOne(ctx, q.filter).Decode(result)
	if err == mongo.ErrNoDocuments {
		return ErrNotFound
	}
	return err
}
