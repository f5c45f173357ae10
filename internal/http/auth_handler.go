package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"travel-planner/internal/email"
	"travel-planner/internal/repository"
	"travel-planner/internal/service"
)

const welcomeEmailTimeout = 15 * time.Second

// AuthHandler mantiene dependencias para register, login y me.
type AuthHandler struct {
	logger      *zap.Logger
	accountServ *service.AccountService
	emailSender email.Sender
}

// NewAuthHandler crea una instancia de AuthHandler. emailSender puede ser nil.
func NewAuthHandler(logger *zap.Logger, accountServ *service.AccountService, emailSender email.Sender) *AuthHandler {
	return &AuthHandler{
		logger:      logger,
		accountServ: accountServ,
		emailSender: emailSender,
	}
}

// Register maneja POST /register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid register request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	res, err := h.accountServ.Register(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, "register", err)
		return
	}

	if h.emailSender != nil {
		// La bienvenida no bloquea ni afecta la respuesta.
		go func(to, name string) {
			ctx, cancel := context.WithTimeout(context.Background(), welcomeEmailTimeout)
			defer cancel()
			if err := h.emailSender.SendWelcome(ctx, to, name); err != nil && !errors.Is(err, email.ErrDisabled) {
				h.logger.Warn("send welcome email failed", zap.Error(err), zap.String("account_id", res.User.ID))
			}
		}(res.User.Email, res.User.Name)
	}

	c.JSON(http.StatusCreated, res)
}

// Login maneja POST /login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	res, err := h.accountServ.Login(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, "login", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Me maneja GET /me; requiere JWTAuthMiddleware.
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	user, err := h.accountServ.WhoAmI(c.Request.Context(), claims.Subject)
	if err != nil {
		h.writeError(c, "me", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// writeError traduce errores de servicio a status + {"error": mensaje}.
func (h *AuthHandler) writeError(c *gin.Context, op string, err error) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Message})
	case errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, service.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
	case errors.Is(err, service.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, repository.ErrStorageUnavailable):
		h.logger.Error(op+" failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
	default:
		h.logger.Error(op+" failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not " + op})
	}
}
