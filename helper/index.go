package helper

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"smartmenu/config"
	"smartmenu/logger"
	"smartmenu/model"
)

var appLog = logger.New("smartmenu")

var ErrInvalidClaims = errors.New("token claims are missing or malformed")

func jwtSecret() []byte {
	return []byte(config.Config("JWT_SECRET"))
}

// GenerateAccessToken signs a staff token. Tokens are minted by the
// restaurant back office; this is used by seeds and tests.
func GenerateAccessToken(claim model.TokenClaim, ttl time.Duration) (string, error) {
	token := jwt.New(jwt.SigningMethodHS256)

	claims := token.Claims.(jwt.MapClaims)
	claims["sub"] = claim.UserId
	claims["email"] = claim.Email
	claims["restaurantId"] = claim.RestaurantId
	claims["exp"] = time.Now().Add(ttl).Unix()

	return token.SignedString(jwtSecret())
}

func ParseToken(tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret(), nil
	})
}

// ClaimFromToken reads the staff claim from a verified token.
func ClaimFromToken(token *jwt.Token) (model.TokenClaim, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return model.TokenClaim{}, ErrInvalidClaims
	}
	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return model.TokenClaim{}, ErrInvalidClaims
	}
	claim := model.TokenClaim{UserId: uint(sub)}
	claim.Email, _ = claims["email"].(string)
	if rid, ok := claims["restaurantId"].(float64); ok {
		claim.RestaurantId = uint(rid)
	}
	return claim, nil
}

// GetClaim returns the claim stored by middleware.Protected.
func GetClaim(c *fiber.Ctx) (model.TokenClaim, bool) {
	claim, ok := c.Locals("claim").(model.TokenClaim)
	return claim, ok
}
