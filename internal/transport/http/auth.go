package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/richardliu001/store-credit-service/internal/service"
)

// CapManageAffiliates lets the bearer adjust any affiliate's store credit.
const CapManageAffiliates = "manage_affiliates"

const actorKey = "actor"

// Claims are the bearer token claims; Subject is the user id.
type Claims struct {
	Capabilities []string `json:"caps,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for userID.
func IssueToken(secret string, userID uint64, caps []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Capabilities: caps,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func parseToken(secret, raw string) (service.Actor, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return service.Actor{}, err
	}
	uid, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || uid == 0 {
		return service.Actor{}, fmt.Errorf("invalid subject %q", claims.Subject)
	}
	actor := service.Actor{UserID: uid}
	for _, c := range claims.Capabilities {
		if c == CapManageAffiliates {
			actor.ManageAffiliates = true
		}
	}
	return actor, nil
}

// AuthMiddleware requires a valid bearer token and stores the actor.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		actor, err := parseToken(secret, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// RequireCapability aborts with 403 unless the actor may manage affiliates.
func RequireCapability() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !actorFrom(c).ManageAffiliates {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You are not allowed to change affiliate store credit."})
			return
		}
		c.Next()
	}
}

func actorFrom(c *gin.Context) service.Actor {
	v, _ := c.Get(actorKey)
	actor, _ := v.(service.Actor)
	return actor
}

var errNotSelf = errors.New("not the affiliate's user")
