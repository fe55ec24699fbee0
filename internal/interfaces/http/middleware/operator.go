package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sklad/pos/internal/domain/shared"
	"github.com/sklad/pos/internal/interfaces/http/dto"
)

// Operator headers. The till authenticates the seller locally and forwards
// who is at the register with every call.
const (
	OperatorNameHeader = "X-Operator-Name"
	OperatorRoleHeader = "X-Operator-Role"

	// OperatorKey is read by the request logger
	OperatorKey = "operator"
	actorKey    = "operator_actor"

	roleAdmin = "admin"
)

// Operator resolves the operator headers into a shared.Actor
func Operator() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := strings.TrimSpace(c.GetHeader(OperatorNameHeader))
		if name != "" {
			role := strings.ToLower(strings.TrimSpace(c.GetHeader(OperatorRoleHeader)))
			c.Set(OperatorKey, name)
			c.Set(actorKey, shared.Actor{Name: name, IsAdmin: role == roleAdmin})
		}
		c.Next()
	}
}

// RequireOperator rejects calls that do not say who is at the register
func RequireOperator() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetActor(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(
				dto.ErrCodeOperatorRequired,
				"Operator name header "+OperatorNameHeader+" is required",
				GetRequestID(c),
			))
			return
		}
		c.Next()
	}
}

// GetActor returns the operator resolved by Operator
func GetActor(c *gin.Context) (shared.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return shared.Actor{}, false
	}
	actor, ok := v.(shared.Actor)
	return actor, ok
}
