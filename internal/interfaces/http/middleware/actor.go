package middleware

import (
	"net/http"
	"strings"

	"github.com/erp/apcontrols/internal/domain/finance"
	"github.com/erp/apcontrols/internal/infrastructure/logger"
	"github.com/erp/apcontrols/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity headers set by the upstream gateway after authentication
const (
	UserIDHeader   = "X-User-ID"
	TenantIDHeader = "X-Tenant-ID"
	UserRoleHeader = "X-User-Role"

	// ActorKey is the gin context key for the resolved finance.Actor
	ActorKey = "actor"
)

// Actor resolves the calling user from the identity headers.
// Requests without a valid user and tenant are rejected with 401.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := uuid.Parse(strings.TrimSpace(c.GetHeader(UserIDHeader)))
		if err != nil || userID == uuid.Nil {
			abortUnauthorized(c, "Missing or invalid "+UserIDHeader+" header")
			return
		}
		tenantID, err := uuid.Parse(strings.TrimSpace(c.GetHeader(TenantIDHeader)))
		if err != nil || tenantID == uuid.Nil {
			abortUnauthorized(c, "Missing or invalid "+TenantIDHeader+" header")
			return
		}

		actor := finance.Actor{
			UserID:   userID,
			TenantID: tenantID,
			Role:     strings.TrimSpace(c.GetHeader(UserRoleHeader)),
		}
		c.Set(ActorKey, actor)

		ctx := logger.WithRequestFields(c.Request.Context(), logger.RequestFields{
			TenantID: tenantID.String(),
			UserID:   userID.String(),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetActor returns the actor resolved by the Actor middleware
func GetActor(c *gin.Context) (finance.Actor, bool) {
	value, exists := c.Get(ActorKey)
	if !exists {
		return finance.Actor{}, false
	}
	actor, ok := value.(finance.Actor)
	return actor, ok
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(dto.ErrCodeUnauthorized, message, GetRequestID(c)))
}
