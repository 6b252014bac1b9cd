package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gorm.io/gorm"

	"github.com/noah-isme/engtrack/internal/dto"
	"github.com/noah-isme/engtrack/internal/models"
	"github.com/noah-isme/engtrack/internal/repository"
)

var (
	// ErrUserNotFound indicates no account uses the login.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials indicates the login or password did not match.
	ErrInvalidCredentials = errors.New("invalid login or password")
	// ErrInvalidUserFile indicates the legacy user file did not match the expected shape.
	ErrInvalidUserFile = errors.New("invalid legacy user file")
)

const legacyUsersSchemaJSON = `{
  "type": "object",
  "properties": {
    "usuarios": {"$ref": "#/$defs/list"},
    "users": {"$ref": "#/$defs/list"}
  },
  "anyOf": [{"required": ["usuarios"]}, {"required": ["users"]}],
  "$defs": {
    "list": {"type": "array", "items": {"$ref": "#/$defs/user"}},
    "user": {
      "type": "object",
      "required": ["login"],
      "properties": {
        "login": {"type": "string", "minLength": 1},
        "nome": {"type": "string"},
        "name": {"type": "string"},
        "senha": {"type": "string", "minLength": 1},
        "password": {"type": "string", "minLength": 1},
        "senha_hash": {"type": "string", "minLength": 1},
        "password_hash": {"type": "string", "minLength": 1},
        "is_admin": {"type": "boolean"}
      },
      "anyOf": [
        {"required": ["senha"]},
        {"required": ["senha_hash"]},
        {"required": ["password"]},
        {"required": ["password_hash"]}
      ]
    }
  }
}`

var legacyUsersSchema = jsonschema.MustCompileString("legacy_users.json", legacyUsersSchemaJSON)

type legacyUserFile struct {
	Usuarios []legacyUser `json:"usuarios"`
	Users    []legacyUser `json:"users"`
}

type legacyUser struct {
	Login        string `json:"login"`
	Nome         string `json:"nome"`
	Name         string `json:"name"`
	Senha        string `json:"senha"`
	Password     string `json:"password"`
	SenhaHash    string `json:"senha_hash"`
	PasswordHash string `json:"password_hash"`
	IsAdmin      bool   `json:"is_admin"`
}

func (u legacyUser) displayName() string {
	for _, candidate := range []string{u.Nome, u.Name, u.Login} {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func (u legacyUser) storedHash() string {
	if u.SenhaHash != "" {
		return u.SenhaHash
	}
	return u.PasswordHash
}

func (u legacyUser) plaintext() string {
	if u.Senha != "" {
		return u.Senha
	}
	return u.Password
}

// UserService is the directory of accounts allowed to sign in.
type UserService interface {
	FindByLogin(ctx context.Context, login string) (models.User, error)
	VerifyPassword(user models.User, plaintext string) bool
	Authenticate(ctx context.Context, login, password string) (models.User, error)
	ImportLegacy(ctx context.Context, path string) (dto.UserImportResult, error)
	Bootstrap(ctx context.Context, path string)
	SetAdmin(ctx context.Context, login string, admin bool) error
}

type userService struct {
	repo   repository.UserRepository
	logger zerolog.Logger
}

// NewUserService constructs the user directory.
func NewUserService(repo repository.UserRepository, logger zerolog.Logger) UserService {
	return &userService{
		repo:   repo,
		logger: logger.With().Str("component", "user_service").Logger(),
	}
}

func (s *userService) FindByLogin(ctx context.Context, login string) (models.User, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return models.User{}, ErrUserNotFound
	}

	user, err := s.repo.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (s *userService) VerifyPassword(user models.User, plaintext string) bool {
	return CheckPassword(user.PasswordHash, plaintext)
}

func (s *userService) Authenticate(ctx context.Context, login, password string) (models.User, error) {
	user, err := s.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}

	if !s.VerifyPassword(user, password) {
		s.logger.Info().Str("login", user.Login).Msg("rejected login attempt")
		return models.User{}, ErrInvalidCredentials
	}

	return user, nil
}

// SetAdmin grants or revokes the admin role.
func (s *userService) SetAdmin(ctx context.Context, login string, admin bool) error {
	login = strings.TrimSpace(login)
	if err := s.repo.SetAdmin(ctx, login, admin); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	s.logger.Info().Str("login", login).Bool("is_admin", admin).Msg("admin role changed")
	return nil
}

// ImportLegacy loads the legacy user file, hashes plaintext passwords, skips logins that
// already exist and inserts the remaining accounts in one batch.
func (s *userService) ImportLegacy(ctx context.Context, path string) (dto.UserImportResult, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return dto.UserImportResult{}, fmt.Errorf("failed to read user file: %w", err)
	}

	var document interface{}
	if err := json.Unmarshal(payload, &document); err != nil {
		return dto.UserImportResult{}, fmt.Errorf("%w: %v", ErrInvalidUserFile, err)
	}
	if err := legacyUsersSchema.Validate(document); err != nil {
		return dto.UserImportResult{}, fmt.Errorf("%w: %v", ErrInvalidUserFile, err)
	}

	var file legacyUserFile
	if err := json.Unmarshal(payload, &file); err != nil {
		return dto.UserImportResult{}, fmt.Errorf("%w: %v", ErrInvalidUserFile, err)
	}
	entries := append(file.Usuarios, file.Users...)

	logins := make([]string, 0, len(entries))
	for _, entry := range entries {
		logins = append(logins, strings.TrimSpace(entry.Login))
	}
	existing, err := s.repo.ExistingLogins(ctx, logins)
	if err != nil {
		return dto.UserImportResult{}, err
	}

	result := dto.UserImportResult{}
	users := make([]models.User, 0, len(entries))
	for _, entry := range entries {
		login := strings.TrimSpace(entry.Login)
		if _, ok := existing[login]; ok || login == "" {
			result.Skipped++
			continue
		}

		hash := entry.storedHash()
		if hash == "" {
			s.logger.Info().Str("login", login).Msg("hashing plaintext password from user file")
			hash, err = HashPassword(entry.plaintext())
			if err != nil {
				return dto.UserImportResult{}, fmt.Errorf("failed to hash password for %s: %w", login, err)
			}
		}

		users = append(users, models.User{
			Login:        login,
			Name:         entry.displayName(),
			PasswordHash: hash,
			IsAdmin:      entry.IsAdmin,
		})
		existing[login] = struct{}{}
	}

	if err := s.repo.CreateBatch(ctx, users); err != nil {
		return dto.UserImportResult{}, err
	}

	result.Imported = len(users)
	s.logger.Info().Int("imported", result.Imported).Int("skipped", result.Skipped).Msg("legacy users imported")
	return result, nil
}

// Bootstrap imports the legacy user file when the directory is empty. Failures are logged
// and never stop startup.
func (s *userService) Bootstrap(ctx context.Context, path string) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to count users, skipping legacy import")
		return
	}
	if total > 0 {
		return
	}

	if _, err := s.ImportLegacy(ctx, path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Warn().Str("path", path).Msg("user directory is empty and no legacy user file was found")
			return
		}
		s.logger.Error().Err(err).Str("path", path).Msg("legacy user import skipped")
	}
}
