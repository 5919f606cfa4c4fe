// Package tor routes feed traffic through a Tor SOCKS5 proxy.
//
// The proxy is either an external Tor daemon the analyst already runs or
// an embedded daemon started through tornago. Either way, a Client wraps
// the SOCKS5 dialer and hands out HTTP clients for the feed client.
package tor
