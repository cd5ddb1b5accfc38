// Package netaddr parses the small set of host/port address forms accepted
// throughout this module: bare IPv4/hostname literals, "host:port" pairs,
// and bracketed IPv6 literals ("[host]:port").
package netaddr
