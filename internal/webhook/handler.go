package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"sales-crm/internal/metrics"
	"sales-crm/pkg/logger"

	"github.com/gin-gonic/gin"
)

const signatureHeader = "X-Hub-Signature-256"

// maxBody caps webhook payloads; Meta batches stay well below this.
const maxBody = 1 << 20

type Handler struct {
	verifyToken string
	appSecret   string
	processor   *Processor
}

// NewHandler builds the webhook endpoints. An empty appSecret disables signature checks.
func NewHandler(verifyToken, appSecret string, p *Processor) *Handler {
	return &Handler{verifyToken: verifyToken, appSecret: appSecret, processor: p}
}

func (h *Handler) Register(r gin.IRouter) {
	r.GET("/webhooks/whatsapp", h.Verify)
	r.POST("/webhooks/whatsapp", h.Receive)
}

// Verify answers the subscription challenge.
func (h *Handler) Verify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && h.verifyToken != "" && hmac.Equal([]byte(token), []byte(h.verifyToken)) {
		c.String(http.StatusOK, "%s", challenge)
		return
	}
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
}

// Receive acknowledges a callback once its envelope is recognized and processes it inline.
func (h *Handler) Receive(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.From(ctx)

	raw, err := readBody(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	if h.appSecret != "" {
		if reason := verifySignature(h.appSecret, c.GetHeader(signatureHeader), raw); reason != "" {
			metrics.WebhookFailures.WithLabelValues("signature").Inc()
			log.Warn("webhook signature rejected", "reason", reason)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid signature"})
			return
		}
	}

	evs, err := Decode(raw)
	switch {
	case errors.Is(err, ErrNoObject):
		c.AbortWithStatus(http.StatusNotFound)
		return
	case err != nil:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "malformed payload"})
		return
	}

	h.processor.Handle(ctx, evs)
	c.String(http.StatusOK, "EVENT_RECEIVED")
}

func readBody(c *gin.Context) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBody)
	return c.GetRawData()
}

// verifySignature checks "sha256=<hex>" against HMAC-SHA256(secret, body).
// It returns a reason on failure and "" on success.
func verifySignature(secret, header string, body []byte) string {
	sig := strings.TrimSpace(header)
	if sig == "" {
		return "missing " + signatureHeader
	}
	hexSig, ok := strings.CutPrefix(sig, "sha256=")
	if !ok {
		return "invalid " + signatureHeader + " format"
	}
	provided, err := hex.DecodeString(hexSig)
	if err != nil {
		return "invalid signature hex"
	}
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	if !hmac.Equal(provided, mac.Sum(nil)) {
		return "signature mismatch"
	}
	return ""
}
