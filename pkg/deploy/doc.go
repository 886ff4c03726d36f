// Package deploy runs revlink update cycles.
//
// A Manager reads the manifest from a content source, materializes every
// referenced revision below the content root, promotes the live revision by
// swapping the live pointer and removes directories the manifest no longer
// references. All progress is discoverable from the directory tree alone:
//
//	<root>/<branch>/<revision>/          materialized, immutable content
//	<root>/<branch>/<revision>.staging/  extraction in progress
//	<root>/live                          pointer to one materialized revision
//
// so a cycle interrupted at any point is finished by the next one.
//
// Runner schedules cycles on an interval, and Inspect reports the on-disk
// state without touching it.
package deploy
