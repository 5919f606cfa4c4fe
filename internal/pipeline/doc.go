// Package pipeline assembles a refresh snapshot by running steps in order.
//
// A refresh cycle fetches the aggregate victim and attack feeds, classifies
// them against the target country, merges the target's dedicated feed and
// fans out to the regional feeds. Each stage is a Step that receives the
// snapshot under construction and fills in its part of it.
//
// Failures follow two tiers. The aggregate feeds are required and abort the
// cycle. The dedicated and regional feeds are optional: a failure is logged,
// recorded in the snapshot's source list and replaced by an empty result.
package pipeline
