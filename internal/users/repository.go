package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicateEmail é retornado quando o correo já está registrado
var ErrDuplicateEmail = errors.New("email is already registered")

const uniqueViolationCode = "23505"

// Repository define a interface para operações de banco de dados de usuários
type Repository interface {
	CreateUser(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, correo string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	UpdateProfile(ctx context.Context, id int64, nombre, direccion, telefono string) (bool, error)
	SetResetCode(ctx context.Context, id int64, code string, expires time.Time) error
	ResetPassword(ctx context.Context, id int64, contrasenaHash string) error
}

// PostgresRepository implementa Repository usando PostgreSQL
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewRepository cria uma nova instância de PostgresRepository
func NewRepository(db *pgxpool.Pool) Repository {
	return &PostgresRepository{
		db: db,
	}
}

// CreateUser insere um novo usuário; correo duplicado vira ErrDuplicateEmail
func (r *PostgresRepository) CreateUser(ctx context.Context, user *User) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO usuarios (nombre, correo, contrasena, rol, direccion, telefono)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, user.Nombre, user.Correo, user.Contrasena, user.Rol, user.Direccion, user.Telefono).
		Scan(&user.ID, &user.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

const userColumns = `id, nombre, correo, contrasena, rol, direccion, telefono, reset_code, reset_expires, created_at`

func scanUser(row pgx.Row) (*User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Nombre, &user.Correo, &user.Contrasena,
		&user.Rol, &user.Direccion, &user.Telefono,
		&user.ResetCode, &user.ResetExpires, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail busca um usuário pelo correo; nil quando não existe
func (r *PostgresRepository) GetByEmail(ctx context.Context, correo string) (*User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM usuarios WHERE correo = $1`, correo))
}

// GetByID busca um usuário pelo id; nil quando não existe
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM usuarios WHERE id = $1`, id))
}

// UpdateProfile atualiza os campos editáveis; o correo nunca muda aqui
func (r *PostgresRepository) UpdateProfile(ctx context.Context, id int64, nombre, direccion, telefono string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE usuarios
		SET nombre = $1, direccion = $2, telefono = $3
		WHERE id = $4
	`, nombre, direccion, telefono, id)
	if err != nil {
		return false, fmt.Errorf("failed to update profile: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// SetResetCode guarda o código de restablecimiento e a sua expiração
func (r *PostgresRepository) SetResetCode(ctx context.Context, id int64, code string, expires time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE usuarios
		SET reset_code = $1, reset_expires = $2
		WHERE id = $3
	`, code, expires, id)
	if err != nil {
		return fmt.Errorf("failed to store reset code: %w", err)
	}
	return nil
}

// ResetPassword troca a senha e limpa o código de reset
func (r *PostgresRepository) ResetPassword(ctx context.Context, id int64, contrasenaHash string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE usuarios
		SET contrasena = $1, reset_code = NULL, reset_expires = NULL
		WHERE id = $2
	`, contrasenaHash, id)
	if err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	return nil
}
