package middleware

import (
	"net/http"

	"github.com/franciscosanchezn/partstock/internal/models"
	"github.com/gin-gonic/gin"
)

// RequireMinRole lets through operators whose role is at least as powerful
// as minRole. Lower role order means more power.
func RequireMinRole(minRole string) gin.HandlerFunc {
	required, ok := models.RoleOrder(minRole)
	if !ok {
		panic("middleware: unknown role " + minRole)
	}

	return func(c *gin.Context) {
		userID, exists := c.Get(ContextUserID)
		if !exists {
			c.JSON(http.StatusUnauthorized, models.NewAPIError(models.ErrUnauthorized, "User not authenticated"))
			c.Abort()
			return
		}

		value, _ := c.Get(ContextRoleOrder)
		order, ok := value.(int)
		if !ok {
			c.JSON(http.StatusForbidden, models.NewAPIError(models.ErrForbidden, "User role not found in token"))
			c.Abort()
			return
		}

		if order > required {
			c.JSON(http.StatusForbidden, models.NewAPIError(models.ErrForbidden, "Insufficient permissions", map[string]interface{}{
				"required_role": minRole,
				"user_role":     c.GetString(ContextUserRole),
				"user_id":       userID,
			}))
			c.Abort()
			return
		}

		c.Next()
	}
}
