package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func performRoleRequest(t *testing.T, role interface{}, setRole bool, required ...string) *httptest.ResponseRecorder {
	t.Helper()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/admin",
		func(c *gin.Context) {
			if setRole {
				c.Set("user_role", role)
			}
		},
		RequireRoles(required...),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	router.ServeHTTP(w, req)
	return w
}

func TestRequireRolesAllowsMatchingRole(t *testing.T) {
	w := performRoleRequest(t, "ADMIN", true, "ADMIN")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRolesRejectsOtherRole(t *testing.T) {
	w := performRoleRequest(t, "USER", true, "ADMIN")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRolesRejectsMissingRole(t *testing.T) {
	w := performRoleRequest(t, nil, false, "ADMIN")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRolesRejectsNonStringRoleClaim(t *testing.T) {
	// A malformed token can leave a non-string value in the context; the
	// middleware must reject it rather than panic
	w := performRoleRequest(t, 42, true, "ADMIN")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = performRoleRequest(t, nil, true, "ADMIN")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
