package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Giorgio223/ton-pvp-app/internal/address"
)

const (
	WalletHeader = "X-Wallet-Address"
	AdminHeader  = "X-Admin-Token"

	sessionKey = "session_address"
)

// WalletAuth takes the session wallet from the X-Wallet-Address header and stores its raw form
// in the gin context. Proof of wallet ownership is checked upstream.
func WalletAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(WalletHeader)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "wallet address is required in 'X-Wallet-Address' header"})
			return
		}
		owner, err := address.Canonical(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": err.Error()})
			return
		}
		Logger(c).WithField("address", owner).Debug("wallet session")
		c.Set(sessionKey, owner)
		c.Next()
	}
}

// SessionAddress returns the address set by WalletAuth.
func SessionAddress(c *gin.Context) string {
	return c.GetString(sessionKey)
}

// AdminAuth guards the admin group. An empty token locks the group entirely.
func AdminAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(AdminHeader)
		if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			Logger(c).WithFields(logrus.Fields{
				"path":   c.FullPath(),
				"client": c.ClientIP(),
			}).Warn("admin request refused")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "admin token required"})
			return
		}
		c.Next()
	}
}
