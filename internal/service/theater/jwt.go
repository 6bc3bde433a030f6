package theater

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	PeerID    string
	SessionID string
}

func (s *service) generateJWT(peerID, sessionID string) (string, error) {
	claims := jwt.MapClaims{
		"member_id":  peerID,
		"session_id": sessionID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(s.secret))
}

func (s *service) parseJWT(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	peerID, _ := claims["member_id"].(string)
	sessionID, _ := claims["session_id"].(string)
	if peerID == "" || sessionID == "" {
		return nil, ErrInvalidToken
	}

	return &Claims{
		PeerID:    peerID,
		SessionID: sessionID,
	}, nil
}
