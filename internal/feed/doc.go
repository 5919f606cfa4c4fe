// Package feed fetches and normalizes records from the ransomware.live API.
//
// The Client issues plain GET requests against three endpoints:
//
//	recentvictims             aggregate recent victims
//	recentcyberattacks        aggregate recent attacks
//	countryvictims/{CODE}     victims for one alpha-2 country code
//
// Every response is expected to be a JSON array. Normalize drops null and
// undecodable entries but never fills in missing fields. Failures are
// reported as *FetchError so that callers can decide whether a source is
// required or may degrade to an empty result.
package feed
