// Package indexmgr reconciles a declared set of indexes against a live
// collection, built directly on the teacher's EnsureIndex/DropIndex
// (modern_collection.go) rather than a second index-management path.
package indexmgr

import (
	"context"
	"fmt"
	"strings"

	mgo "github.com/rowdoc/core"
	"go.uber.org/zap"
)

// IndexSpec declares one desired index, in the compact
// "name[:dir],name[:dir],..." dialect used by the schema file.
type IndexSpec struct {
	PathToFields string
	Unique       bool
	Sparse       bool
	Drop         bool
}

// Apply reconciles specs against coll: every non-Drop spec is ensured
// present via the teacher's EnsureIndex, every Drop spec is removed via
// DropIndex. Drops are skipped when collectionWasTruncated, since a
// truncated collection carries no indexes worth dropping and the
// generated index name may no longer resolve to anything.
func Apply(ctx context.Context, coll *mgo.ModernColl, specs []IndexSpec, collectionWasTruncated bool, log *zap.SugaredLogger) error {
	for _, spec := range specs {
		key, err := parsePathToFields(spec.PathToFields)
		if err != nil {
			return fmt.Errorf("indexmgr: %q: %w", spec.PathToFields, err)
		}

		if spec.Drop {
			if collectionWasTruncated {
				if log != nil {
					log.Infow("skipping index drop on truncated collection", "fields", spec.PathToFields)
				}
				continue
			}
			name := indexName(key)
			if err := coll.DropIndex(name); err != nil {
				return fmt.Errorf("indexmgr: dropping index %q: %w", name, err)
			}
			if log != nil {
				log.Infow("dropped index", "fields", spec.PathToFields, "name", name)
			}
			continue
		}

		idx := mgo.Index{Key: key, Unique: spec.Unique, Sparse: spec.Sparse, Background: true}
		if err := coll.EnsureIndex(idx); err != nil {
			return fmt.Errorf("indexmgr: ensuring index %q: %w", spec.PathToFields, err)
		}
		if log != nil {
			log.Infow("ensured index", "fields", spec.PathToFields, "unique", spec.Unique, "sparse", spec.Sparse)
		}
	}
	return nil
}

// parsePathToFields parses "name[:dir],name[:dir],..." into the
// "field" / "-field" key list mgo.Index.Key already expects
// (modern_collection.go's EnsureIndex convention). dir is "1" or "-1";
// anything else, or an omitted dir, defaults to ascending.
func parsePathToFields(pathToFields string) ([]string, error) {
	parts := strings.Split(pathToFields, ",")
	key := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("empty field in index spec")
		}
		name, dir, hasDir := strings.Cut(part, ":")
		name = strings.TrimSpace(name)
		if !hasDir || strings.TrimSpace(dir) != "-1" {
			key = append(key, name)
			continue
		}
		key = append(key, "-"+name)
	}
	return key, nil
}

// indexName mirrors the server's default naming convention
// (field1_1_field2_-1), so a Drop spec can resolve a name without a
// prior round trip through Indexes().
func indexName(key []string) string {
	var b strings.Builder
	for i, k := range key {
		if i > 0 {
			b.WriteByte('_')
		}
		if strings.HasPrefix(k, "-") {
			b.WriteString(k[1:])
			b.WriteString("_-1")
		} else {
			b.WriteString(k)
			b.WriteString("_1")
		}
	}
	return b.String()
}
