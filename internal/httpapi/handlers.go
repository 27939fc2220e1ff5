package httpapi

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ironsheep/sprite-tools-mcp/internal/sheet"
	"github.com/ironsheep/sprite-tools-mcp/internal/sprite"
)

type handlers struct {
	root       string
	decodeOpts []sprite.Option
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// fail maps request and input problems to 400 and everything else to 500.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if sheet.IsClientError(err) {
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *handlers) combine(c *gin.Context) {
	var req sheet.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.Root = h.root

	result, err := sheet.Build(c.Request.Context(), req, h.decodeOpts...)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *handlers) size(c *gin.Context) {
	var req sheet.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.Root = h.root

	result, err := sheet.Size(req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *handlers) verify(c *gin.Context) {
	var req sheet.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.Root = h.root
	if req.Tolerance < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tolerance must not be negative"})
		return
	}

	result, err := sheet.Verify(c.Request.Context(), req, h.decodeOpts...)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// extract returns the sprite as a PNG body rather than JSON.
func (h *handlers) extract(c *gin.Context) {
	var req sheet.ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.Root = h.root

	result, err := sheet.Extract(c.Request.Context(), req, h.decodeOpts...)
	if err != nil {
		fail(c, err)
		return
	}
	b, err := base64.StdEncoding.DecodeString(result.ImageBase64)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, result.MimeType, b)
}
