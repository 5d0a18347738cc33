package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/ecomclone/user-service/internal/application"
	"github.com/ecomclone/user-service/pkg/response"
	"github.com/ecomclone/user-service/pkg/validation"
)

// UserHandler translates HTTP requests into auth service operations and
// maps the service's failure kinds onto the API's status codes:
// validation 400, email conflict 409, unknown user 404, bad password 401,
// store failure 502.
type UserHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewUserHandler(svc *userapp.Service, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

func clientIP(c *gin.Context) string {
	if ip := c.GetString("real_ip"); ip != "" {
		return ip
	}
	return c.ClientIP()
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,max=72"`
	Email    string `json:"email" binding:"required,email"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Default GET /api/users/
func (h *UserHandler) Default(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"message": "User default route."})
}

// Register POST /api/users/register
func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailValidation(c, validation.ToViolations(err))
		return
	}

	u, err := h.Svc.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, userapp.ErrEmailAlreadyExists) {
			response.Fail(c, http.StatusConflict, "User Email already exists")
			return
		}
		if h.Logger != nil {
			h.Logger.WithError(err).WithFields(logrus.Fields{"email": req.Email, "ip": clientIP(c)}).Error("register failed")
		}
		response.FailStore(c, err.Error())
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": u.Public()})
}

// Login POST /api/users/login
func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailValidation(c, validation.ToViolations(err))
		return
	}

	res, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, userapp.ErrUserNotFound):
			response.Fail(c, http.StatusNotFound, "user not found")
		case errors.Is(err, userapp.ErrInvalidCredentials):
			response.Fail(c, http.StatusUnauthorized, "invalid credentials")
		default:
			if h.Logger != nil {
				h.Logger.WithError(err).WithFields(logrus.Fields{"email": req.Email, "ip": clientIP(c)}).Error("login failed")
			}
			response.FailStore(c, err.Error())
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token":      res.Token,
		"expires_at": res.ExpiresAt,
		"user":       res.User.Public(),
	})
}

// UploadProfilePic POST /api/users/uploadProfilePic (auth required)
// Accepts a single multipart file field named "profilePic".
func (h *UserHandler) UploadProfilePic(c *gin.Context) {
	uid := c.GetString("userID")

	fh, err := c.FormFile("profilePic")
	if err != nil {
		response.FailValidation(c, []validation.Violation{{
			Field: "profilePic", Rule: "required", Message: "file is required",
		}})
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "could not read uploaded file")
		return
	}
	defer func() { _ = f.Close() }()

	u, err := h.Svc.UploadProfilePicture(c.Request.Context(), uid, f, fh.Filename, fh.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, userapp.ErrUserNotFound) {
			response.Fail(c, http.StatusNotFound, "user not found")
			return
		}
		if h.Logger != nil {
			h.Logger.WithError(err).WithField("user_id", uid).Error("profile picture upload failed")
		}
		response.FailStore(c, err.Error())
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": u.Public()})
}

// GetProfile GET /api/users/profile (auth required)
func (h *UserHandler) GetProfile(c *gin.Context) {
	uid := c.GetString("userID")

	u, err := h.Svc.Profile(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, userapp.ErrUserNotFound) {
			response.Fail(c, http.StatusNotFound, "user not found")
			return
		}
		response.FailStore(c, err.Error())
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": u.Public()})
}

// Search GET /api/users/search?q=&size= (auth required)
func (h *UserHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.FailValidation(c, []validation.Violation{{
			Field: "q", Rule: "required", Message: "is required",
		}})
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))

	results, err := h.Svc.SearchUsers(c.Request.Context(), q, size)
	if err != nil {
		response.FailStore(c, err.Error())
		return
	}

	response.Success(c, http.StatusOK, gin.H{"results": results})
}
