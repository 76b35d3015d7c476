package middleware

import (
	"github.com/osvaldoandrade/coffeeshop/internal/metrics"
	"github.com/osvaldoandrade/coffeeshop/pkg/auth"
	"github.com/osvaldoandrade/coffeeshop/pkg/domain"

	"github.com/gin-gonic/gin"
)

const claimsKey = "claims"

// RequireScope verifies the bearer token with validator and checks that it
// grants scope. An empty scope only requires a valid token.
func RequireScope(validator auth.Validator, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := authorize(c, validator, scope)
		if err != nil {
			abortAuth(c, auth.AsError(err))
			return
		}
		c.Set(claimsKey, claims)
		c.Request = c.Request.WithContext(auth.ContextWithClaims(c.Request.Context(), claims))
		c.Next()
	}
}

func authorize(c *gin.Context, validator auth.Validator, scope string) (*auth.Claims, error) {
	token, err := auth.BearerToken(c.GetHeader("Authorization"))
	if err != nil {
		return nil, err
	}
	claims, err := validator.Validate(c.Request.Context(), token)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(claims, scope); err != nil {
		return nil, err
	}
	return claims, nil
}

func abortAuth(c *gin.Context, ae *auth.Error) {
	metrics.AuthFailuresTotal.WithLabelValues(ae.Code).Inc()
	attrs := []any{"code", ae.Code, "status", ae.Status, "path", c.Request.URL.Path}
	if ae.Err != nil {
		attrs = append(attrs, "err", ae.Err)
	}
	LoggerFrom(c).Info("request rejected", attrs...)
	c.AbortWithStatusJSON(ae.Status, domain.ErrorResponse{
		Success: false,
		Error:   ae.Status,
		Message: ae.Description,
		Code:    ae.Code,
	})
}

// GetClaims returns the claims stored by RequireScope.
func GetClaims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok && claims != nil
}
