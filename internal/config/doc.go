// Package config holds the runtime configuration of ransomwatch: which feed
// to read, which country to watch, which regions to fan out to, how often to
// refresh, and how traffic reaches the feed.
//
// Values are layered: NewConfig defaults, then an optional YAML file
// (see FindConfigFile), then command line flags. Validate is called once
// after all layers are applied.
package config
