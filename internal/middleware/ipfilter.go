package middleware

import (
	"fmt"
	"net/http"
	"net/netip"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IPFilter rejects clients on the deny list, and when the allow list is not
// empty, every client not on it. Entries are addresses or CIDR prefixes.
func IPFilter(allow, deny []string, log *zap.Logger) (gin.HandlerFunc, error) {
	allowed, err := parsePrefixes(allow)
	if err != nil {
		return nil, fmt.Errorf("parse allow list: %w", err)
	}
	denied, err := parsePrefixes(deny)
	if err != nil {
		return nil, fmt.Errorf("parse deny list: %w", err)
	}

	return func(c *gin.Context) {
		ip := c.ClientIP()
		addr, err := netip.ParseAddr(ip)
		if err == nil {
			addr = addr.Unmap()
		}

		var blocked bool
		switch {
		case err != nil:
			blocked = len(allowed) > 0
		case contains(denied, addr):
			blocked = true
		case len(allowed) > 0:
			blocked = !contains(allowed, addr)
		}
		if blocked {
			log.Warn("blocked request from ip", zap.String("ip", ip), zap.String("path", c.Request.URL.Path))
			abort(c, http.StatusForbidden, "access denied: your IP is not allowed")
			return
		}
		c.Next()
	}, nil
}

func parsePrefixes(entries []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if strings.Contains(e, "/") {
			p, err := netip.ParsePrefix(e)
			if err != nil {
				return nil, err
			}
			out = append(out, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(e)
		if err != nil {
			return nil, err
		}
		a = a.Unmap()
		out = append(out, netip.PrefixFrom(a, a.BitLen()))
	}
	return out, nil
}

func contains(prefixes []netip.Prefix, addr netip.Addr) bool {
	for _, p := range prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
