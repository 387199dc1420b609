package utils // package utils provides helper functions for token creation and hashing

import (
    "errors"   // sentinel errors for token failure classification
    "strconv"  // string-to-int conversion for numeric string claims
    "time"     // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// Token validation failures are classified into exactly two kinds because
// they map to different caller-visible messages: an expired token means the
// session timed out and the user should log in again, while anything else
// (malformed, wrong algorithm, bad signature) is treated as an invalid
// credential.
var (
    ErrTokenExpired = errors.New("token expired")
    ErrTokenInvalid = errors.New("token invalid")
)

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the JWT string.  Exp stores the expiration
// timestamp as a time.Time.  Access tokens are encoded in the
// Authorization header when calling protected endpoints.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// AccessClaims is the decoded, typed view of a validated access token.
// It carries only what the guard needs: who the subject is and which role
// the token was minted with.  The subject's current state (active flag,
// login window) is deliberately NOT in the token; it is re-read from the
// database on every request.
type AccessClaims struct {
    UserID    uint64    // subject id ("sub" claim)
    Role      string    // role at issuance ("role" claim)
    Email     string    // email at issuance ("email" claim)
    ExpiresAt time.Time // expiry ("exp" claim)
}

// NewAccessToken builds and signs an HS256 JWT for a user.  It takes the
// signing secret, the user ID, the user's role and email, and a TTL in
// minutes.  It returns an AccessToken structure containing the signed token
// and its expiration time.  The JWT includes standard claims: subject (sub),
// role, email, expiration (exp) and issued at (iat).
func NewAccessToken(secret string, userID uint64, role, email string, ttlMin int) (AccessToken, error) {
    // Calculate the expiration time by adding the TTL to the current UTC time.
    exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
    claims := jwt.MapClaims{
        "sub":   userID,
        "role":  role,
        "email": email,
        "exp":   exp.Unix(),
        "iat":   time.Now().UTC().Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies the signature and expiry of a raw token string
// and returns its typed claims.  Failures are collapsed into the two
// sentinel errors above: ErrTokenExpired when the token was well-formed and
// correctly signed but past its expiry, ErrTokenInvalid for everything
// else.  An expired token is never reported as invalid.
func ParseAccessToken(secret, raw string) (AccessClaims, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        // Reject tokens signed with anything but HMAC; accepting the
        // token's own alg header would let a caller forge "none" tokens.
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrTokenInvalid
        }
        return []byte(secret), nil
    })
    if err != nil {
        if errors.Is(err, jwt.ErrTokenExpired) {
            return AccessClaims{}, ErrTokenExpired
        }
        return AccessClaims{}, ErrTokenInvalid
    }
    if !tok.Valid {
        return AccessClaims{}, ErrTokenInvalid
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return AccessClaims{}, ErrTokenInvalid
    }

    out := AccessClaims{}
    // JWT numeric values decode as float64; some encoders emit numeric
    // strings instead, so accept both forms for the subject.
    switch sub := claims["sub"].(type) {
    case float64:
        out.UserID = uint64(sub)
    case string:
        n, convErr := strconv.ParseUint(sub, 10, 64)
        if convErr != nil {
            return AccessClaims{}, ErrTokenInvalid
        }
        out.UserID = n
    default:
        return AccessClaims{}, ErrTokenInvalid
    }
    if role, ok := claims["role"].(string); ok {
        out.Role = role
    }
    if email, ok := claims["email"].(string); ok {
        out.Email = email
    }
    if exp, ok := claims["exp"].(float64); ok {
        out.ExpiresAt = time.Unix(int64(exp), 0).UTC()
    }
    if out.UserID == 0 {
        return AccessClaims{}, ErrTokenInvalid
    }
    return out, nil
}
