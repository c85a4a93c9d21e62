package handler

import (
	"context"
	"net/http"

	"github.com/TuhinPramanik4/Civicsolve/internal/verify"
	"github.com/gin-gonic/gin"
)

// PhotoVerifier is satisfied by *verify.Service
type PhotoVerifier interface {
	Verify(ctx context.Context, req verify.Request) (*verify.Result, error)
}

type VerifyHandler struct {
	verifier PhotoVerifier
}

func NewVerifyHandler(verifier PhotoVerifier) *VerifyHandler {
	return &VerifyHandler{verifier: verifier}
}

func (h *VerifyHandler) Verify(c *gin.Context) {
	var req verify.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.verifier.Verify(c.Request.Context(), req)
	if err != nil {
		verr := verify.AsError(err)
		c.JSON(verr.HTTPStatus(), verifyErrorBody(verr))
		return
	}

	c.JSON(http.StatusOK, result)
}

func verifyErrorBody(verr *verify.Error) gin.H {
	body := gin.H{"error": verr.Message}
	switch verr.Kind {
	case verify.KindUpstreamFetch:
		if verr.UpstreamStatus != 0 {
			body["status"] = verr.UpstreamStatus
		}
	case verify.KindInternal:
		if verr.Err != nil {
			body["detail"] = verr.Err.Error()
		}
	}
	return body
}

// RegisterVerifyRoutes mounts the verification endpoint under /api and at the root
func RegisterVerifyRoutes(r gin.IRouter, h *VerifyHandler) {
	r.POST("/verify-photo-text", h.Verify)
	r.POST("/api/verify-photo-text", h.Verify)
}
