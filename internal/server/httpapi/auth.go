package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/growkeeper/internal/api"
	"github.com/dmitrijs2005/growkeeper/internal/common"
)

func (h *Handler) Register(c *gin.Context) {
	var req api.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, common.ErrorValidation)
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Username, req.Salt, req.Verifier)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.logger.Info(c.Request.Context(), "Registered", "username", req.Username)
	c.JSON(http.StatusCreated, gin.H{"id": user.ID})
}

func (h *Handler) Salt(c *gin.Context) {
	var req api.SaltRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" {
		abortWithError(c, http.StatusBadRequest, common.ErrorValidation)
		return
	}

	salt, err := h.users.GetSalt(c.Request.Context(), req.Username)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.SaltResponse{Salt: salt})
}

func (h *Handler) Login(c *gin.Context) {
	var req api.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, common.ErrorValidation)
		return
	}

	tokens, err := h.users.Login(c.Request.Context(), req.Username, req.Verifier)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.TokenResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken})
}

func (h *Handler) Refresh(c *gin.Context) {
	var req api.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		abortWithError(c, http.StatusBadRequest, common.ErrorValidation)
		return
	}

	tokens, err := h.users.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.TokenResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken})
}
