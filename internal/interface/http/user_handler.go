package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-account-service/internal/application"
	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/pkg/response"
	"github.com/oksasatya/go-account-service/pkg/validation"
)

type UserHandler struct {
	Svc    *application.UserService
	Logger *logrus.Logger
}

func NewUserHandler(svc *application.UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type userRequest struct {
	Email    string `json:"email" binding:"required"`
	Username string `json:"username" binding:"required"`
	Password string `json:"psw"`
	Theme    bool   `json:"theme"`
	Lang     string `json:"lang"`
}

// userView is the wire shape of a user record; the password hash is never
// serialized.
func userView(u *entity.User) gin.H {
	return gin.H{
		"id_user":  u.ID,
		"email":    u.Email,
		"username": u.Username,
		"verified": u.Verified,
		"theme":    u.Theme,
		"lang":     u.Lang,
	}
}

func (h *UserHandler) failure(c *gin.Context, err error) {
	var ce *application.CodeError
	if errors.As(err, &ce) {
		response.Error[any](c, http.StatusBadRequest, ce.Code, ce.Error(), nil)
		return
	}
	h.Logger.WithError(err).Error("user request failed")
	response.Error[any](c, http.StatusBadRequest, application.CodeServerError, "server error", nil)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, application.CodeServerError, "invalid id", nil)
		return 0, false
	}
	return id, true
}

// List GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.Svc.List(c.Request.Context())
	if err != nil {
		h.failure(c, err)
		return
	}
	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		out = append(out, userView(u))
	}
	response.Success(c, http.StatusOK, out, "users")
}

// Get GET /api/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	u, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, application.ErrUserNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		h.failure(c, err)
		return
	}
	response.Success(c, http.StatusOK, userView(u), "user")
}

// Add POST /api/users (administrative create, no verification email)
func (h *UserHandler) Add(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, application.CodeServerError, "invalid payload", validation.ToDetails(err))
		return
	}
	u := &entity.User{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	}
	if err := h.Svc.Add(c.Request.Context(), u); err != nil {
		h.failure(c, err)
		return
	}
	response.Success(c, http.StatusCreated, userView(u), "user added")
}

// Update PUT /api/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, application.CodeServerError, "invalid payload", validation.ToDetails(err))
		return
	}
	u := &entity.User{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		Theme:    req.Theme,
		Lang:     req.Lang,
	}
	if err := h.Svc.Update(c.Request.Context(), u, id); err != nil {
		if errors.Is(err, application.ErrUserNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		h.failure(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Delete DELETE /api/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), id); err != nil {
		h.failure(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Search GET /api/users/search?q=&size=
func (h *UserHandler) Search(c *gin.Context) {
	q := c.Query("q")
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Svc.Search(c.Request.Context(), q, size)
	if err != nil {
		h.failure(c, err)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results")
}
