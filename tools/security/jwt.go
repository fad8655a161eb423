package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"PPClient/tools/decode"
	"PPClient/tools/errs"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Options 控制签名与TTL等参数。
type Options struct {
	Secret []byte        // HMAC 密钥（生产用ENV/KMS）
	Alg    string        // HS256/HS384/HS512（默认 HS256）
	TTL    time.Duration // 令牌有效期（默认 2h）
}

func DefaultOptions(secret []byte) Options {
	return Options{Secret: secret, Alg: "HS256", TTL: 2 * time.Hour}
}

// User 令牌里携带的用户信息（claim "user"）
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// DecodedToken 客户端侧解出的令牌内容，不校验签名
type DecodedToken struct {
	User      User
	ExpiresAt time.Time // 零值表示没有 exp
}

// Expired exp 早于 now 即视为过期
func (d *DecodedToken) Expired(now time.Time) bool {
	return !d.ExpiresAt.IsZero() && d.ExpiresAt.Before(now)
}

// Decode 只解析不验签：签名由服务端在握手时校验，客户端只需要 user 和 exp。
func Decode(token string) (*DecodedToken, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errs.ErrInvalidToken.WrapMsg("empty token")
	}
	claims := jwtlib.MapClaims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, errs.ErrInvalidToken.WrapErr(err, "parse token")
	}
	return decodeClaims(claims)
}

func decodeClaims(claims jwtlib.MapClaims) (*DecodedToken, error) {
	out := &DecodedToken{}
	if raw, ok := claims["user"]; ok && raw != nil {
		u, err := decode.Decode[User](raw)
		if err != nil {
			return nil, errs.ErrInvalidToken.WrapErr(err, "decode user claim")
		}
		out.User = *u
	} else if sub, err := claims.GetSubject(); err == nil && sub != "" {
		out.User.ID = sub
	}
	if out.User.ID == "" {
		return nil, errs.ErrInvalidToken.WrapMsg("token carries no user id")
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, errs.ErrInvalidToken.WrapErr(err, "read exp")
	}
	if exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

// Generate 签发带 user claim 的令牌（服务端/测试桩使用）
func Generate(opts Options, user User) (token string, expireAt time.Time, err error) {
	method, err := signingMethod(opts.Alg)
	if err != nil {
		return "", time.Time{}, err
	}
	if opts.TTL <= 0 {
		opts.TTL = 2 * time.Hour
	}
	now := time.Now()
	exp := now.Add(opts.TTL)

	claims := jwtlib.MapClaims{
		"sub": user.ID,
		"iat": now.Unix(),
		"exp": exp.Unix(),
		"user": map[string]any{
			"id":     user.ID,
			"name":   user.Name,
			"email":  user.Email,
			"avatar": user.Avatar,
		},
	}

	tok := jwtlib.NewWithClaims(method, claims)
	signed, err := tok.SignedString(opts.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify 验签并返回解出的令牌内容
func Verify(opts Options, token string) (*DecodedToken, error) {
	if _, err := signingMethod(opts.Alg); err != nil {
		return nil, err
	}
	parsed, err := jwtlib.Parse(token, func(t *jwtlib.Token) (interface{}, error) {
		// 仅允许 HMAC 家族
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected alg: %v", t.Header["alg"])
		}
		return opts.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, errs.ErrSessionExpired.WrapErr(err, "verify token")
		}
		return nil, errs.ErrInvalidToken.WrapErr(err, "verify token")
	}
	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, errs.ErrInvalidToken.WrapMsg("claims type mismatch")
	}
	return decodeClaims(claims)
}

func signingMethod(alg string) (jwtlib.SigningMethod, error) {
	switch strings.ToUpper(strings.TrimSpace(alg)) {
	case "", "HS256":
		return jwtlib.SigningMethodHS256, nil
	case "HS384":
		return jwtlib.SigningMethodHS384, nil
	case "HS512":
		return jwtlib.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("unsupported alg: %s (use HS256/HS384/HS512)", alg)
	}
}
