package users

import (
	"time"

	"github.com/mitienda/api/internal/auth"
)

// User representa uma conta da loja. A senha e o código de reset nunca são
// serializados nas respostas.
type User struct {
	ID           int64      `json:"id"`
	Nombre       string     `json:"nombre"`
	Correo       string     `json:"correo"`
	Contrasena   string     `json:"-"`
	Rol          auth.Role  `json:"rol"`
	Direccion    string     `json:"direccion"`
	Telefono     string     `json:"telefono"`
	ResetCode    *string    `json:"-"`
	ResetExpires *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
}

// RegisterRequest representa a requisição de registro (sempre rol 'usuario')
type RegisterRequest struct {
	Nombre     string `json:"nombre" binding:"required"`
	Correo     string `json:"correo" binding:"required,email"`
	Contrasena string `json:"contrasena" binding:"required,min=6"`
	Direccion  string `json:"direccion"`
	Telefono   string `json:"telefono"`
}

// LoginRequest representa a requisição de login
type LoginRequest struct {
	Correo     string `json:"correo" binding:"required"`
	Contrasena string `json:"contrasena" binding:"required"`
}

// UpdateProfileRequest atualiza os dados editáveis do perfil; o correo é
// imutável
type UpdateProfileRequest struct {
	Nombre    string `json:"nombre" binding:"required"`
	Direccion string `json:"direccion"`
	Telefono  string `json:"telefono"`
}

// ResetRequest pede o envio do código de restablecimiento por correio
type ResetRequest struct {
	Correo string `json:"correo" binding:"required,email"`
}

// VerifyCodeRequest verifica um código recebido por correio
type VerifyCodeRequest struct {
	Correo string `json:"correo" binding:"required,email"`
	Codigo string `json:"codigo" binding:"required"`
}

// ResetPasswordRequest conclui o fluxo trocando a senha
type ResetPasswordRequest struct {
	Correo          string `json:"correo" binding:"required,email"`
	Codigo          string `json:"codigo" binding:"required"`
	NuevaContrasena string `json:"nueva_contrasena" binding:"required,min=6"`
}
