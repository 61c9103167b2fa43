// Package replset holds replica-set discovery constants and a thin
// reader for custom write-concern ("getLastErrorModes") definitions,
// built on the teacher's ModernDB.C / ModernQ.One rather than a second
// Mongo client path.
package replset

import (
	"context"

	mgo "github.com/rowdoc/core"
)

const (
	// DefaultPort is the standard MongoDB listener port.
	DefaultPort = 27017
	// LocalDatabase is the database every mongod exposes its own
	// replication metadata under.
	LocalDatabase = "local"
	// ReplsetCollection holds the replica-set configuration document.
	ReplsetCollection = "system.replset"
	// GetLastErrorModesKey is the dotted path, inside the replset config
	// document, to the map of custom write-concern mode names.
	GetLastErrorModesKey = "settings.getLastErrorModes"
)

// replsetConfig mirrors only the slice of local.system.replset this
// package cares about.
type replsetConfig struct {
	Settings struct {
		GetLastErrorModes map[string]map[string]int `bson:"getLastErrorModes"`
	} `bson:"settings"`
}

// CustomDurabilityModes reads local.system.replset and returns the
// custom getLastErrorModes definitions as mode name -> tag keys, so
// callers can validate a configured write concern mode actually exists
// on the replica set before using it.
func CustomDurabilityModes(ctx context.Context, sess *mgo.ModernMGO) (map[string][]string, error) {
	var cfg replsetConfig
	err := sess.DB(LocalDatabase).C(ReplsetCollection).Find(nil).One(&cfg)
	if err != nil {
		return nil, err
	}

	modes := make(map[string][]string, len(cfg.Settings.GetLastErrorModes))
	for mode, tags := range cfg.Settings.GetLastErrorModes {
		keys := make([]string, 0, len(tags))
		for tag := range tags {
			keys = append(keys, tag)
		}
		modes[mode] = keys
	}
	return modes, nil
}
