package middleware

import (
	"net/http"
	"time"

	"taskboard/internal/repository"

	"github.com/gin-gonic/gin"
)

// RequirePremium admits callers whose entitlement has not run out. Expiry is
// checked here on every request, independent of the background sweep.
func RequirePremium(userRepo repository.UserRepository, now func() time.Time) gin.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(c *gin.Context) {
		user, err := userRepo.GetByID(c.Request.Context(), UserID(c))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			return
		}

		if !user.IsPremium || user.SubscriptionExpires == nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Premium subscription required",
			})
			return
		}

		if !user.HasActiveEntitlement(now()) {
			c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{
				"error": "Your subscription has expired",
			})
			return
		}

		c.Next()
	}
}
