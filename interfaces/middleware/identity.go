package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"omnicast/domain/dto"
	"omnicast/domain/model"
	"omnicast/infrastructure/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
)

// Identity resolves the caller and stores the id under "user_id". A bearer
// token is only honoured when secretKey is set; without one every request runs
// as defaultUserID.
func Identity(secretKey string, defaultUserID int64) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authorization := ctx.GetHeader("Authorization")
		if secretKey == "" || authorization == "" {
			ctx.Set("user_id", defaultUserID)
			ctx.Next()
			return
		}

		raw, found := strings.CutPrefix(authorization, "Bearer ")
		if !found || raw == "" {
			unauthorized(ctx, "Authorization header must be a bearer token", errors.New("malformed authorization header"))
			return
		}
		claims, err := parseClaims(raw, secretKey)
		if err != nil {
			unauthorized(ctx, describeTokenError(err), err)
			return
		}
		if claims.UserID <= 0 {
			unauthorized(ctx, "Token carries no user", errors.New("missing user_id claim"))
			return
		}
		ctx.Set("user_id", claims.UserID)
		ctx.Next()
	}
}

func parseClaims(raw, secretKey string) (*model.UserClaims, error) {
	var claims model.UserClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return &claims, nil
}

func describeTokenError(err error) string {
	var ve *jwt.ValidationError
	if errors.As(err, &ve) {
		switch {
		case ve.Errors&jwt.ValidationErrorMalformed != 0:
			return "That's not even a token"
		case ve.Errors&(jwt.ValidationErrorExpired|jwt.ValidationErrorNotValidYet) != 0:
			return "Token expired or not active yet"
		}
	}
	return "Invalid token"
}

func unauthorized(ctx *gin.Context, message string, err error) {
	logger.FromContext(ctx.Request.Context()).WithField("error", err.Error()).Debug("request rejected by identity middleware")
	ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: message, Error: err.Error()})
}
