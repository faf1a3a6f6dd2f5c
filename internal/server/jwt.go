package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token 签名者
const tokenIssuer = "arenaball-server"

// ErrInvalidToken 会话令牌无效
var ErrInvalidToken = errors.New("会话令牌无效")

// Claims 定义 JWT Claims
type Claims struct {
	PlayerID int32  `json:"player_id"`
	RoomID   string `json:"room_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer 签发与校验断线重连用的会话令牌
type TokenIssuer struct {
	key []byte
	ttl time.Duration
}

// NewTokenIssuer 密钥来自配置（JWT_SECRET），ttl 为会话有效期
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{key: []byte(secret), ttl: ttl}
}

// Generate 生成会话 Token
func (i *TokenIssuer) Generate(playerID int32, roomID string) (string, error) {
	now := time.Now()
	claims := Claims{
		PlayerID: playerID,
		RoomID:   roomID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   fmt.Sprintf("player-%d", playerID),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.key)
}

// Verify 验证并解析 Token，返回 playerID 和 roomID
func (i *TokenIssuer) Verify(tokenString string) (int32, string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// 验证签名算法
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.key, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return 0, "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims.PlayerID, claims.RoomID, nil
	}
	return 0, "", ErrInvalidToken
}
