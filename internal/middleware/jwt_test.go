package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lingua-crm-api/internal/models"
	"github.com/noah-isme/lingua-crm-api/internal/service"
)

const (
	testSecret = "jwt-secret"
	testIssuer = "lingua-identity"
)

func signToken(t *testing.T, secret string, claims models.JWTClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func staffClaims(expiresIn time.Duration) models.JWTClaims {
	return models.JWTClaims{
		UserID:   "user-7",
		Username: "desk",
		FullName: "Front Desk",
		Role:     models.RoleStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
}

func newProtectedRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append(mw, func(c *gin.Context) {
		actor, ok := service.ActorFromContext(c.Request.Context())
		if !ok {
			c.JSON(http.StatusOK, gin.H{"actor": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"actor": actor})
	})
	r.GET("/protected", handlers...)
	return r
}

func doRequest(r http.Handler, target, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestVerifierAcceptsValidToken(t *testing.T) {
	verifier := NewTokenVerifier(testSecret, testIssuer)
	claims, err := verifier.Verify(signToken(t, testSecret, staffClaims(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, "user-7", claims.UserID)
	assert.Equal(t, models.RoleStaff, claims.Role)
}

func TestVerifierRejectsBadTokens(t *testing.T) {
	verifier := NewTokenVerifier(testSecret, testIssuer)

	_, err := verifier.Verify(signToken(t, "other-secret", staffClaims(time.Hour)))
	assert.Error(t, err)

	_, err = verifier.Verify(signToken(t, testSecret, staffClaims(-time.Minute)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")

	foreign := staffClaims(time.Hour)
	foreign.Issuer = "someone-else"
	_, err = verifier.Verify(signToken(t, testSecret, foreign))
	assert.Error(t, err)

	anonymous := staffClaims(time.Hour)
	anonymous.UserID = ""
	_, err = verifier.Verify(signToken(t, testSecret, anonymous))
	assert.Error(t, err)

	_, err = verifier.Verify("not-a-token")
	assert.Error(t, err)
}

func TestJWTAttachesActor(t *testing.T) {
	r := newProtectedRouter(JWT(NewTokenVerifier(testSecret, testIssuer)))
	w := doRequest(r, "/protected", signToken(t, testSecret, staffClaims(time.Hour)))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Actor models.Actor `json:"actor"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, models.Actor{ID: "user-7", Name: "Front Desk", Role: models.RoleStaff}, body.Actor)
}

func TestJWTRejectsMissingOrMalformedHeader(t *testing.T) {
	r := newProtectedRouter(JWT(NewTokenVerifier(testSecret, testIssuer)))
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "/protected", "").Code)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Basic abc")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAcceptsQueryTokenForEventStreams(t *testing.T) {
	r := newProtectedRouter(JWT(NewTokenVerifier(testSecret, testIssuer)))
	token := signToken(t, testSecret, staffClaims(time.Hour))
	w := doRequest(r, "/protected?access_token="+token, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOptionalJWTPassesThrough(t *testing.T) {
	r := newProtectedRouter(OptionalJWT(NewTokenVerifier(testSecret, testIssuer)))
	w := doRequest(r, "/protected", "garbage")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"actor":null}`, w.Body.String())
}

func TestRequireRoles(t *testing.T) {
	verifier := NewTokenVerifier(testSecret, testIssuer)
	adminOnly := newProtectedRouter(JWT(verifier), RequireRoles(models.RoleAdmin))
	staff := signToken(t, testSecret, staffClaims(time.Hour))
	assert.Equal(t, http.StatusForbidden, doRequest(adminOnly, "/protected", staff).Code)

	office := newProtectedRouter(JWT(verifier), RequireRoles(models.RoleAdmin, models.RoleStaff))
	assert.Equal(t, http.StatusOK, doRequest(office, "/protected", staff).Code)

	unauthenticated := newProtectedRouter(RequireRoles(models.RoleAdmin))
	assert.Equal(t, http.StatusUnauthorized, doRequest(unauthenticated, "/protected", "").Code)
}

func TestResponseMetaReportsCacheHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/meta", WithResponseMeta(), func(c *gin.Context) {
		SetCacheHit(c, true)
		c.JSON(http.StatusOK, ExtractMeta(c))
	})
	w := doRequest(r, "/meta", "")
	var meta map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &meta))
	assert.Equal(t, true, meta["cacheHit"])
	assert.Contains(t, meta, "processingTimeMs")
	assert.NotContains(t, meta, "startedAt")
}
