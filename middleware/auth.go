package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"learnstack/model"
	"learnstack/services"
	"learnstack/utils"
)

// AuthMiddleware validates the bearer token and stores the caller's id and
// role in the context.
func AuthMiddleware(tokens *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.Unauthorized(c, "Missing or invalid token")
			c.Abort()
			return
		}

		claims, err := tokens.Parse(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			utils.Unauthorized(c, "Invalid token")
			c.Abort()
			return
		}

		role := claims.Role
		if role == "" {
			role = string(model.RoleStudent)
		}
		c.Set("user_id", claims.UserID)
		c.Set("role", role)
		if claims.IssuedAt != nil {
			c.Set("token_issued_at", claims.IssuedAt.Time)
		}
		c.Next()
	}
}

// RequireRole lets through callers holding any of roles. Admins always pass.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := model.Role(c.GetString("role"))
		if role == model.RoleAdmin {
			c.Next()
			return
		}
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		utils.Forbidden(c, "Insufficient role")
		c.Abort()
	}
}
