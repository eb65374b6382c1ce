package middleware

import (
	"fmt"
	"net/http"

	"github.com/cmlabs-hris/hris-timetracking-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-timetracking-go/internal/handler/http/response"
)

// RequirePermission checks that the caller's role grants permission.
// It must run after AuthRequired.
func RequirePermission(permission user.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			pc, err := user.FromContext(r.Context())
			if err != nil {
				response.HandleError(w, err)
				return
			}

			if !user.HasPermission(pc.Role, permission) {
				response.Forbidden(w, fmt.Sprintf("Insufficient permissions: required '%s', but user role is '%s'", permission, pc.Role))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireEmployee requires the caller to have an employee profile.
func RequireEmployee(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pc, err := user.FromContext(r.Context())
		if err != nil {
			response.HandleError(w, err)
			return
		}

		if pc.EmployeeID == nil {
			response.HandleError(w, user.ErrEmployeeIDRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}
