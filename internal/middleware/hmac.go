package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	HeaderTimestamp = "X-Timestamp"
	HeaderSignature = "X-Signature"

	// ContextRawBody carries the verified raw body to the handler.
	ContextRawBody = "raw_body"
)

// HmacMiddleware gates webhook callbacks: the signature covers
// timestamp + "." + raw body, and the timestamp must sit inside the
// freshness window. Nothing downstream runs on a bad signature.
func HmacMiddleware(secret string, tolerance time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "hmac_secret_not_configured"})
			c.Abort()
			return
		}

		tsHeader := c.GetHeader(HeaderTimestamp)
		sigHeader := c.GetHeader(HeaderSignature)
		if tsHeader == "" || sigHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing_hmac_headers"})
			c.Abort()
			return
		}

		ts, err := strconv.ParseInt(tsHeader, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad_timestamp"})
			c.Abort()
			return
		}

		now := time.Now().Unix()
		if math.Abs(float64(now-ts)) > tolerance.Seconds() {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "timestamp_out_of_window"})
			c.Abort()
			return
		}

		var rawBody []byte
		if c.Request.Body != nil {
			rawBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(rawBody))
		}
		if len(rawBody) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "raw_body_required"})
			c.Abort()
			return
		}

		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write([]byte(tsHeader))
		mac.Write([]byte("."))
		mac.Write(rawBody)
		expected := hex.EncodeToString(mac.Sum(nil))

		if !timingSafeEqualHex(sigHeader, expected) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_signature"})
			c.Abort()
			return
		}

		c.Set(ContextRawBody, rawBody)
		c.Next()
	}
}

func timingSafeEqualHex(a, b string) bool {
	ab, err := hex.DecodeString(a)
	if err != nil {
		return false
	}
	bb, err := hex.DecodeString(b)
	if err != nil {
		return false
	}
	if len(ab) != len(bb) {
		return false
	}
	return subtle.ConstantTimeCompare(ab, bb) == 1
}
