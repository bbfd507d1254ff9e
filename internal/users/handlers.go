package users

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mitienda/api/internal/auth"
)

// UseCaseInterface define a interface para o use case
type UseCaseInterface interface {
	Register(ctx context.Context, req RegisterRequest) (*User, error)
	Login(ctx context.Context, correo, contrasena string) (string, *User, error)
	GetProfile(ctx context.Context, id int64) (*User, error)
	UpdateProfile(ctx context.Context, id int64, req UpdateProfileRequest) error
	RequestReset(ctx context.Context, correo string) error
	VerifyResetCode(ctx context.Context, correo, codigo string) (int64, error)
	ResetPassword(ctx context.Context, correo, codigo, nuevaContrasena string) error
}

// Handler contém os handlers HTTP de usuários
type Handler struct {
	useCase UseCaseInterface
}

// NewHandler cria uma nova instância de Handler
func NewHandler(useCase UseCaseInterface) *Handler {
	return &Handler{
		useCase: useCase,
	}
}

// Register cria uma conta de cliente
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
		return
	}

	user, err := h.useCase.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"mensaje": "Usuario registrado correctamente",
		"usuario": user,
	})
}

// Login autentica e devolve o token bearer
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
		return
	}

	token, user, err := h.useCase.Login(c.Request.Context(), req.Correo, req.Contrasena)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"usuario": user,
	})
}

// GetProfile lê um perfil; só o dono ou um admin
func (h *Handler) GetProfile(c *gin.Context) {
	id, ok := profileID(c)
	if !ok {
		return
	}

	user, err := h.useCase.GetProfile(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateProfile atualiza um perfil; só o dono ou um admin. O correo não muda.
func (h *Handler) UpdateProfile(c *gin.Context) {
	id, ok := profileID(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
		return
	}

	if err := h.useCase.UpdateProfile(c.Request.Context(), id, req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mensaje": "Perfil actualizado correctamente"})
}

// RequestReset inicia o fluxo de restablecimiento de senha
func (h *Handler) RequestReset(c *gin.Context) {
	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
		return
	}

	if err := h.useCase.RequestReset(c.Request.Context(), req.Correo); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"mensaje": "Se ha enviado un código de restablecimiento a tu correo",
		"correo":  req.Correo,
	})
}

// VerifyCode valida o código recebido por correio
func (h *Handler) VerifyCode(c *gin.Context) {
	var req VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
		return
	}

	userID, err := h.useCase.VerifyResetCode(c.Request.Context(), req.Correo, req.Codigo)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"mensaje":    "Código verificado correctamente",
		"usuario_id": userID,
	})
}

// ResetPassword conclui o fluxo trocando a senha
func (h *Handler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
		return
	}

	if err := h.useCase.ResetPassword(c.Request.Context(), req.Correo, req.Codigo, req.NuevaContrasena); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mensaje": "Contraseña restablecida correctamente"})
}

// profileID resolve o :id da rota e aplica a regra dono-ou-admin
func profileID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id", "code": "validation"})
		return 0, false
	}

	claims, _ := auth.ClaimsFrom(c)
	if claims == nil || (claims.Rol != auth.RoleAdmin && claims.UserID != id) {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot access another user's profile", "code": "forbidden"})
		return 0, false
	}
	return id, true
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrDuplicateEmail):
		c.JSON(http.StatusConflict, gin.H{"error": "El correo ya está registrado", "code": "conflict"})
	case errors.Is(err, ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Credenciales inválidas", "code": "unauthorized"})
	case errors.Is(err, ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Usuario no encontrado", "code": "not_found"})
	case errors.Is(err, ErrInvalidResetCode), errors.Is(err, ErrExpiredResetCode):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "code": "internal"})
	}
}
