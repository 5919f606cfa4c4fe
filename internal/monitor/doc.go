// Package monitor owns the published snapshot and schedules refreshes.
//
// Each refresh builds a new snapshot and publishes it with a single atomic
// store, so readers always see a complete cycle. Only one refresh runs at a
// time; a trigger that arrives while one is in flight is dropped.
package monitor
