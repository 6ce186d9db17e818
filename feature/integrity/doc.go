// Package integrity provides deployment health checks.
//
// Unlike the 'library' package which reconciles catalog content,
// this package validates the infrastructure a sync depends on.
//
// # Checks Provided
//
//   - Structure: the snapshot bucket exists and holds the snapshot and archive folders.
//   - Snapshots: counts the JSON snapshots available and finds the newest one.
//   - Schema: the library tables match their GORM models (columns, explicit types).
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks.
//   - GET /integrity/structure : Runs structure check (supports ?fix=true).
//   - GET /integrity/snapshots : Runs snapshot check.
//   - GET /integrity/schema : Runs schema check.
package integrity
