package likeservice

import (
	"net/http"
	"strings"

	"github.com/sushihentaime/devlog/internal/authz"
)

const UnknownIP = "unknown"

// Identity is the key likes are deduplicated by. Exactly one of UserID and IP is set.
// Anonymous callers behind one address share a single like.
type Identity struct {
	UserID string
	IP     string
}

func (i Identity) String() string {
	if i.UserID != "" {
		return "user:" + i.UserID
	}
	return "ip:" + i.IP
}

// ResolveIdentity uses the authenticated user when there is one, else the client address reported by
// X-Forwarded-For (first entry), then X-Real-IP, then the literal "unknown".
func ResolveIdentity(p authz.Principal, h http.Header) Identity {
	if !p.IsAnonymous() {
		return Identity{UserID: p.ID}
	}

	if fwd := h.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return Identity{IP: ip}
		}
	}

	if ip := strings.TrimSpace(h.Get("X-Real-IP")); ip != "" {
		return Identity{IP: ip}
	}

	return Identity{IP: UnknownIP}
}

// nullable maps the empty string to SQL NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
