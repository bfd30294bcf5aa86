package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/gramtest-backend/internal/model"
	"github.com/stemsi/gramtest-backend/internal/response"
	"github.com/stemsi/gramtest-backend/internal/service"
)

// TestLookup resolves a test definition; *service.TestCatalog satisfies it.
type TestLookup interface {
	Test(ctx context.Context, testID int64) (*model.Test, error)
}

// RequireTestOwner checks that the teacher JWT belongs to the author of the test
// named by the given route parameter. Must run after RequireTeacherJWT.
func RequireTestOwner(tests TestLookup, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		testID, err := strconv.ParseInt(c.Param(param), 10, 64)
		if err != nil || testID <= 0 {
			response.AbortFail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}

		test, err := tests.Test(c.Request.Context(), testID)
		if err != nil {
			if errors.Is(err, service.ErrTestNotFound) {
				response.AbortFail(c, http.StatusNotFound, response.ErrTestNotFound)
				return
			}
			response.AbortFail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}

		if test.TeacherID != claims.UserID {
			response.AbortFail(c, http.StatusForbidden, response.ErrNotTestOwner)
			return
		}

		c.Next()
	}
}
