package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SatishMiral/chrome-extension-backend/models"
)

// Auth guards the compare routes with API keys sent either as
//
//	X-API-Key: <key>
//	Authorization: Bearer <key>
//
// With no non-empty keys configured every request passes.
func Auth(apiKeys []string) gin.HandlerFunc {
	keys := newKeyring(apiKeys)
	if len(keys) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		presented := presentedKey(c.Request)
		switch {
		case presented == "":
			unauthorized(c, "API key required. Send X-API-Key or Authorization: Bearer.")
		case !keys.contains(presented):
			unauthorized(c, "API key not recognised.")
		default:
			c.Next()
		}
	}
}

// keyring holds SHA-256 digests of the accepted keys so lookups compare
// fixed-length values in constant time.
type keyring [][sha256.Size]byte

func newKeyring(apiKeys []string) keyring {
	var k keyring
	for _, key := range apiKeys {
		if key = strings.TrimSpace(key); key != "" {
			k = append(k, sha256.Sum256([]byte(key)))
		}
	}
	return k
}

func (k keyring) contains(key string) bool {
	digest := sha256.Sum256([]byte(key))
	found := 0
	for i := range k {
		found |= subtle.ConstantTimeCompare(k[i][:], digest[:])
	}
	return found == 1
}

func presentedKey(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get("X-API-Key")); key != "" {
		return key
	}
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

func unauthorized(c *gin.Context, msg string) {
	slog.Warn("compare request rejected",
		"code", models.ErrCodeUnauthorized,
		"path", c.Request.URL.Path,
		"request_id", GetRequestID(c),
	)
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		Success: false,
		Error:   msg,
	})
}
