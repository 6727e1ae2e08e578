package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-account-service/internal/application"
	"github.com/oksasatya/go-account-service/pkg/helpers"
	"github.com/oksasatya/go-account-service/pkg/response"
	"github.com/oksasatya/go-account-service/pkg/validation"
)

type AuthHandler struct {
	Auth        *application.AuthService
	Tickets     *application.VerificationService
	Codec       *helpers.TokenCodec
	Logger      *logrus.Logger
	FrontendURL string
}

func NewAuthHandler(auth *application.AuthService, tickets *application.VerificationService, codec *helpers.TokenCodec, logger *logrus.Logger, frontendURL string) *AuthHandler {
	return &AuthHandler{Auth: auth, Tickets: tickets, Codec: codec, Logger: logger, FrontendURL: frontendURL}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"psw" binding:"required"`
}

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Username string `json:"username" binding:"required"`
	Password string `json:"psw" binding:"required"`
	Theme    bool   `json:"theme"`
	Lang     string `json:"lang"`
}

// failure writes an expected validation failure with its code, or a generic
// server error for anything unexpected.
func (h *AuthHandler) failure(c *gin.Context, err error) {
	var ce *application.CodeError
	if errors.As(err, &ce) {
		response.Error[any](c, http.StatusBadRequest, ce.Code, ce.Error(), nil)
		return
	}
	h.Logger.WithError(err).Error("auth request failed")
	response.Error[any](c, http.StatusBadRequest, application.CodeServerError, "server error", nil)
}

// Login POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, application.CodeServerError, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.failure(c, err)
		return
	}
	token, err := h.Codec.Issue(u.Username, u.ID)
	if err != nil {
		h.failure(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"token": token}, "authenticated")
}

// Register POST /api/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, application.CodeServerError, "invalid payload", validation.ToDetails(err))
		return
	}
	err := h.Auth.Register(c.Request.Context(), application.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		Theme:    req.Theme,
		Lang:     req.Lang,
	})
	if err != nil {
		h.failure(c, err)
		return
	}
	response.Success[any](c, http.StatusCreated, nil, "user registered")
}

// VerifyEmail GET /api/verify-email?token=...
// Always redirects to the front-end login, flagging the outcome. Ticket
// problems are expected conditions, not errors.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	verified := false
	if token != "" {
		ok, err := h.Tickets.ValidateAndConsume(c.Request.Context(), token)
		if err != nil {
			h.Logger.WithError(err).Error("ticket consume failed")
		}
		verified = ok
	}
	target := h.FrontendURL + "/#/login?verified=false"
	if verified {
		target = h.FrontendURL + "/#/login?verified=true"
	}
	c.Redirect(http.StatusFound, target)
}
