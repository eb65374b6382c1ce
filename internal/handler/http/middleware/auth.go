package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/hris-timetracking-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-timetracking-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-timetracking-go/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

// AuthRequired rejects requests without a verified access token and stores
// the caller's PermissionContext in the request context.
func AuthRequired(next http.Handler) http.Handler {
	hfn := func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.Unauthorized(w, err.Error())
			return
		}

		if token == nil {
			response.HandleError(w, user.ErrInvalidToken)
			return
		}

		tokenType, ok := claims["type"].(string)
		if !ok || tokenType != jwt.TokenTypeAccess {
			response.HandleError(w, user.ErrInvalidToken)
			return
		}

		pc, ok := permissionContextFromClaims(claims)
		if !ok {
			response.HandleError(w, user.ErrInvalidToken)
			return
		}

		next.ServeHTTP(w, r.WithContext(user.WithPermissionContext(r.Context(), pc)))
	}
	return http.HandlerFunc(hfn)
}

func permissionContextFromClaims(claims map[string]interface{}) (user.PermissionContext, bool) {
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return user.PermissionContext{}, false
	}
	role, _ := claims["role"].(string)

	return user.PermissionContext{
		UserID:     userID,
		EmployeeID: optionalClaim(claims, "employee_id"),
		CompanyID:  optionalClaim(claims, "company_id"),
		Role:       user.Role(role),
	}, true
}

func optionalClaim(claims map[string]interface{}, key string) *string {
	v, ok := claims[key].(string)
	if !ok || v == "" {
		return nil
	}
	return &v
}
