// Package database provides the SQLite-backed history of detections.
//
// Every scan produces a DetectionRecord which RecordDB stores in a single
// aiflavor.db file under the XDG data directory. Records are addressed by
// ULID, so IDs sort by creation time and can be generated without a round
// trip to the database. Features and metadata are stored as JSON columns;
// the columns used for filtering (url, timestamp, score) are indexed.
//
// The driver is modernc.org/sqlite, which needs no cgo.
package database
