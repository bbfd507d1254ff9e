package users

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mitienda/api/internal/auth"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidResetCode   = errors.New("reset code is invalid")
	ErrExpiredResetCode   = errors.New("reset code has expired")
)

const (
	bcryptCost     = 10
	resetCodeTTL   = 30 * time.Minute
	resetCodeBytes = 3 // 6 caracteres hex
)

// UseCase contém a lógica de negócio de usuários e autenticação
type UseCase struct {
	repository Repository
	tokenMaker *auth.TokenMaker
	mailer     Mailer
}

// NewUseCase cria uma nova instância de UseCase
func NewUseCase(repository Repository, tokenMaker *auth.TokenMaker, mailer Mailer) *UseCase {
	return &UseCase{
		repository: repository,
		tokenMaker: tokenMaker,
		mailer:     mailer,
	}
}

// Register cria uma conta de cliente. Contas admin são criadas fora da API.
func (uc *UseCase) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Contrasena), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		Nombre:     req.Nombre,
		Correo:     strings.ToLower(strings.TrimSpace(req.Correo)),
		Contrasena: string(hash),
		Rol:        auth.RoleCustomer,
		Direccion:  req.Direccion,
		Telefono:   req.Telefono,
	}
	if err := uc.repository.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("✅ [REGISTER] User %d created (%s)", user.ID, user.Correo)
	return user, nil
}

// Login valida as credenciais e emite o token bearer {id, rol}
func (uc *UseCase) Login(ctx context.Context, correo, contrasena string) (string, *User, error) {
	user, err := uc.repository.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(correo)))
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		return "", nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Contrasena), []byte(contrasena)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := uc.tokenMaker.CreateToken(user.ID, user.Rol)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create token: %w", err)
	}
	return token, user, nil
}

// GetProfile retorna o perfil de um usuário
func (uc *UseCase) GetProfile(ctx context.Context, id int64) (*User, error) {
	user, err := uc.repository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile atualiza nombre, direccion e telefono; o correo é imutável
func (uc *UseCase) UpdateProfile(ctx context.Context, id int64, req UpdateProfileRequest) error {
	ok, err := uc.repository.UpdateProfile(ctx, id, req.Nombre, req.Direccion, req.Telefono)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserNotFound
	}
	return nil
}

// RequestReset gera o código de restablecimiento, guarda-o com expiração de
// 30 minutos e envia-o por correio
func (uc *UseCase) RequestReset(ctx context.Context, correo string) error {
	user, err := uc.repository.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(correo)))
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	code, err := generateResetCode()
	if err != nil {
		return err
	}
	expires := time.Now().Add(resetCodeTTL)

	if err := uc.repository.SetResetCode(ctx, user.ID, code, expires); err != nil {
		return err
	}
	if err := uc.mailer.SendResetCode(ctx, user.Correo, user.Nombre, code); err != nil {
		return err
	}

	log.Printf("✅ [RESET] Code sent to user %d", user.ID)
	return nil
}

// VerifyResetCode valida o código antes do passo final do fluxo
func (uc *UseCase) VerifyResetCode(ctx context.Context, correo, codigo string) (int64, error) {
	user, err := uc.checkResetCode(ctx, correo, codigo)
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}

// ResetPassword conclui o fluxo: revalida o código, troca a senha e limpa o
// código
func (uc *UseCase) ResetPassword(ctx context.Context, correo, codigo, nuevaContrasena string) error {
	user, err := uc.checkResetCode(ctx, correo, codigo)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(nuevaContrasena), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := uc.repository.ResetPassword(ctx, user.ID, string(hash)); err != nil {
		return err
	}

	log.Printf("✅ [RESET] Password updated for user %d", user.ID)
	return nil
}

func (uc *UseCase) checkResetCode(ctx context.Context, correo, codigo string) (*User, error) {
	user, err := uc.repository.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(correo)))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.ResetCode == nil || user.ResetExpires == nil {
		return nil, ErrInvalidResetCode
	}
	if *user.ResetCode != strings.ToUpper(codigo) {
		return nil, ErrInvalidResetCode
	}
	if time.Now().After(*user.ResetExpires) {
		return nil, ErrExpiredResetCode
	}
	return user, nil
}

// generateResetCode produz um código de 6 caracteres hex maiúsculos
func generateResetCode() (string, error) {
	buf := make([]byte, resetCodeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate reset code: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}
