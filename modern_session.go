// modern_session.go - connecting to MongoDB and descending from client to
// collection. Everything session-level the teacher offered beyond
// Dial/Close/DB/C (Copy/Clone/SetMode/read preference/Ping/BuildInfo/
// GridFS/Run) has no caller in this module and is dropped.

package mgo

import (
	"context"
	"net/url"
	"strings"
	"time"

	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DialModernMGO connects to MongoDB using the official driver, exposing
// the narrow mgo-shaped handle the rest of this module calls through.
func DialModernMGO(mongoURL string) (*ModernMGO, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Retryable writes aren't supported against every deployment this
	// module targets (standalone mongod); disabling avoids a server error.
	client, err := mongodrv.Connect(ctx, options.Client().ApplyURI(mongoURL).SetRetryWrites(false))
	if err != nil {
		return nil, err
	}

	dbName := "test"
	if parsedURL, err := url.Parse(mongoURL); err == nil && parsedURL.Path != "" {
		if name := strings.TrimPrefix(parsedURL.Path, "/"); name != "" {
			dbName = name
		}
	}

	return &ModernMGO{client: client, dbName: dbName}, nil
}

// Close disconnects the underlying client.
func (m *ModernMGO) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	m.client.Disconnect(ctx)
}

// DB returns a database handle, defaulting to the database named in the
// dial URL when name is empty.
func (m *ModernMGO) DB(name string) *ModernDB {
	if name == "" {
		name = m.dbName
	}
	return &ModernDB{mgoDB: m.client.Database(name)}
}

// C returns a collection handle.
func (db *ModernDB) C(name string) *ModernColl {
	return &ModernColl{mgoColl: db.mgoDB.Collection(name)}
}
