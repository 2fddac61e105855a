package auth

import (
	"time"

	"tally/config"
	"tally/repository"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	JudgeId     int      `json:"judge_id"`
	EventId     int      `json:"event_id"`
	Permissions []string `json:"permissions"`
	Exp         int64    `json:"exp"`
}

func (claims *Claims) FromJWTClaims(jwtClaims jwt.Claims) {
	mapClaims, ok := jwtClaims.(jwt.MapClaims)
	if !ok {
		return
	}
	permissions := []string{}
	if mapClaims["permissions"] != nil {
		for _, perm := range mapClaims["permissions"].([]interface{}) {
			permissions = append(permissions, perm.(string))
		}
	}
	claims.Permissions = permissions
	if judgeId, ok := mapClaims["judge_id"].(float64); ok {
		claims.JudgeId = int(judgeId)
	}
	if eventId, ok := mapClaims["event_id"].(float64); ok {
		claims.EventId = int(eventId)
	}
	if exp, ok := mapClaims["exp"].(float64); ok {
		claims.Exp = int64(exp)
	}
}

func (claims *Claims) Valid() error {
	if time.Now().Unix() > claims.Exp {
		return jwt.ErrTokenExpired
	}
	return nil
}

// CreateJudgeToken mints the token an admin hands to a judge. The
// code-to-token exchange itself lives in the external identity service;
// this covers admin-provisioned judge links.
func CreateJudgeToken(judge *repository.Judge) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256,
		jwt.MapClaims{
			"judge_id":    judge.Id,
			"event_id":    judge.EventId,
			"permissions": []string{"judge"},
			"exp":         time.Now().Add(time.Hour * 24 * 7).Unix(),
		})

	tokenString, err := token.SignedString([]byte(config.Env().JWTSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func ParseToken(tokenString string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(config.Env().JWTSecret), nil
	})

	if err != nil {
		return nil, err
	}
	return token, nil
}
