package netaddr

import (
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformed is returned (wrapped) when an address string cannot be parsed
// under either the IPv4 or the IPv6 grammar.
type ErrMalformed struct {
	Input string
}

func (e *ErrMalformed) Error() string {
	return fmt.Sprintf("netaddr: malformed address %q", e.Input)
}

// ParseIPv4 parses "HOST" or "HOST:PORT". defaultPort is substituted when no
// port is present. More than one colon is a parse error.
func ParseIPv4(s string, defaultPort int) (host string, port int, err error) {
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 1:
		return parts[0], defaultPort, nil
	case 2:
		p, perr := strconv.Atoi(parts[1])
		if perr != nil {
			return "", 0, fmt.Errorf("netaddr: invalid port %q: %w", parts[1], &ErrMalformed{Input: s})
		}
		return parts[0], p, nil
	default:
		return "", 0, &ErrMalformed{Input: s}
	}
}

// ParseIPv6 parses "HOST" or "[HOST]:PORT". defaultPort is substituted when
// no port is present. Unbalanced brackets are a parse error.
func ParseIPv6(s string, defaultPort int) (host string, port int, err error) {
	if !strings.HasPrefix(s, "[") {
		if strings.Contains(s, "]") {
			return "", 0, &ErrMalformed{Input: s}
		}
		return s, defaultPort, nil
	}
	end := strings.IndexByte(s, ']')
	if end < 0 {
		return "", 0, &ErrMalformed{Input: s}
	}
	host = s[1:end]
	rest := s[end+1:]
	if rest == "" {
		return host, defaultPort, nil
	}
	if !strings.HasPrefix(rest, ":") {
		return "", 0, &ErrMalformed{Input: s}
	}
	p, perr := strconv.Atoi(rest[1:])
	if perr != nil {
		return "", 0, fmt.Errorf("netaddr: invalid port %q: %w", rest[1:], &ErrMalformed{Input: s})
	}
	return host, p, nil
}

// ParseIP dispatches to ParseIPv6 when s contains more than one colon,
// otherwise to ParseIPv4. This is the address-parsing entry point used by
// the rest of the module to accept "host", "host:port" and "[host6]:port"
// uniformly.
func ParseIP(s string, defaultPort int) (host string, port int, err error) {
	if strings.Count(s, ":") > 1 {
		return ParseIPv6(s, defaultPort)
	}
	return ParseIPv4(s, defaultPort)
}
