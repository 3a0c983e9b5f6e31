// Package exportsqlite exports rendered CV documents as SQLite database files.
//
// Exporter is disabled by default; set Exporter.Enabled and register it for
// cv.FormatSQLite explicitly:
//
//	exporters[cv.FormatSQLite] = exportsqlite.Exporter{Enabled: true}
//
// Each block becomes one row of the blocks table, in document order. The
// table name defaults to "cv_blocks" and may be overridden with TableName.
package exportsqlite
