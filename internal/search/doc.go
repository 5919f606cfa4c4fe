// Package search filters snapshot collections by a free-text query.
package search
