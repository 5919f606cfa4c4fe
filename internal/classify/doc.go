// Package classify decides whether a feed record is relevant to a country.
//
// Four independent signals are evaluated in a fixed order, each producing
// at most one label:
//
//  1. the website host ends with the country TLD (".eg domain")
//  2. the description contains the country name ("egypt in description")
//  3. the country field is the alpha-2 or alpha-3 code, or contains the
//     country name ("egypt in country")
//  4. the victim name contains the country name ("egypt in victim name")
//
// The TLD and code checks are exact comparisons, while the name checks are
// plain substring containment. A short code such as "eg" never matches
// inside a longer word.
package classify
