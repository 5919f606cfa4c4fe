// Package main provides the entry point for the ransomwatch CLI.
//
// ransomwatch aggregates ransomware leak-site victims and attack reports
// from the ransomware.live feed, highlights records relevant to a target
// country (Egypt by default) and collects regional GCC victims.
//
// Usage:
//
//	ransomwatch fetch
//	ransomwatch fetch --markdown -o report.md
//	ransomwatch watch --interval 10m
//	ransomwatch serve --listen 127.0.0.1:8080
//
// See --help for all available options.
package main

func main() {
	Execute()
}
