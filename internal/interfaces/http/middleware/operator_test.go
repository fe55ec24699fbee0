package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sklad/pos/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func TestOperator(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID(), Operator())
	engine.GET("/whoami", func(c *gin.Context) {
		actor, ok := GetActor(c)
		c.JSON(http.StatusOK, gin.H{"known": ok, "name": actor.Name, "admin": actor.IsAdmin, "operator": c.GetString(OperatorKey)})
	})
	engine.POST("/till", RequireOperator(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	tests := []struct {
		name      string
		headers   map[string]string
		wantName  string
		wantAdmin bool
	}{
		{"no headers", nil, "", false},
		{"seller", map[string]string{OperatorNameHeader: " Jana "}, "Jana", false},
		{"admin role is case-insensitive", map[string]string{OperatorNameHeader: "Petr", OperatorRoleHeader: "Admin"}, "Petr", true},
		{"role without name is ignored", map[string]string{OperatorRoleHeader: "admin"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := testutil.Perform(t, engine, testutil.Request{Path: "/whoami", Headers: tt.headers})
			body := testutil.JSONResponse(t, w)
			assert.Equal(t, tt.wantName != "", body["known"])
			assert.Equal(t, tt.wantName, body["name"])
			assert.Equal(t, tt.wantName, body["operator"])
			assert.Equal(t, tt.wantAdmin, body["admin"])
		})
	}

	t.Run("require operator", func(t *testing.T) {
		w := testutil.Perform(t, engine, testutil.Request{Method: http.MethodPost, Path: "/till"})
		testutil.AssertErrorResponse(t, w, http.StatusUnauthorized, "OPERATOR_REQUIRED")

		w = testutil.Perform(t, engine, testutil.Request{Method: http.MethodPost, Path: "/till", Headers: map[string]string{OperatorNameHeader: "Jana"}})
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}
