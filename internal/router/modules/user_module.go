package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/ecomclone/user-service/internal/interface/http"
	"github.com/ecomclone/user-service/internal/interface/middleware"
	"github.com/ecomclone/user-service/pkg/helpers"
)

// UserModule wires the user handlers and bearer-auth middleware into routes.
// Public: GET /api/users/, POST /api/users/register, POST /api/users/login
// Protected: POST /api/users/uploadProfilePic, GET /api/users/profile,
// GET /api/users/search

type UserModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users")

	users.GET("/", m.Handler.Default)
	users.POST("/register", m.Handler.Register)
	users.POST("/login", m.Handler.Login)

	auth := users.Group("/")
	auth.Use(middleware.BearerAuth(m.JWT))
	{
		auth.POST("/uploadProfilePic", m.Handler.UploadProfilePic)
		auth.GET("/profile", m.Handler.GetProfile)
		auth.GET("/search", m.Handler.Search)
	}
}
