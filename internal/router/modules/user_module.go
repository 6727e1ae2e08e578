package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-account-service/internal/interface/http"
)

// UserModule registers the user management CRUD and search routes. No route
// currently requires an authenticated identity; the identity middleware on
// the API group attaches one when a valid bearer token is presented.
type UserModule struct {
	Handler *handlers.UserHandler
}

func NewUserModule(h *handlers.UserHandler) *UserModule {
	return &UserModule{Handler: h}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	rg.GET("/users", m.Handler.List)
	rg.GET("/users/search", m.Handler.Search)
	rg.GET("/users/:id", m.Handler.Get)
	rg.POST("/users", m.Handler.Add)
	rg.PUT("/users/:id", m.Handler.Update)
	rg.DELETE("/users/:id", m.Handler.Delete)
}
