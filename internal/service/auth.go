package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shenikar/resq_dispatch/internal/models"
	"github.com/shenikar/resq_dispatch/internal/storage"
	"github.com/sirupsen/logrus"
)

const sessionKeyPrefix = "resq_session:"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionNotFound    = errors.New("session not found")
)

// AuthService выдает и проверяет сессии. Аутентификация имитационная:
// принимается любая непустая пара email/пароль.
type AuthService interface {
	Login(ctx context.Context, email, password string, role models.Role) (*models.Session, error)
	Logout(ctx context.Context, token string) error
	Restore(ctx context.Context, token string) (*models.Session, error)
	Authenticate(ctx context.Context, token string) (*models.Session, error)
}

type authService struct {
	store  storage.KeyValueStore
	secret []byte
	clock  clockwork.Clock
	logger *logrus.Logger
}

func NewAuthService(store storage.KeyValueStore, secret string, clock clockwork.Clock, logger *logrus.Logger) AuthService {
	return &authService{
		store:  store,
		secret: []byte(secret),
		clock:  clock,
		logger: logger,
	}
}

func (s *authService) Login(ctx context.Context, email, password string, role models.Role) (*models.Session, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "auth",
		"method":  "Login",
		"role":    role,
	})

	if strings.TrimSpace(email) == "" || password == "" {
		log.Warn("Rejected login with empty credentials")
		return nil, ErrInvalidCredentials
	}
	if role == "" {
		role = models.RoleDispatcher
	}
	if _, err := models.ParseRole(string(role)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	local, _, _ := strings.Cut(email, "@")
	user := models.User{
		ID:     "user_" + uuid.NewString(),
		Email:  email,
		Name:   displayName(local),
		Role:   role,
		Avatar: "https://ui-avatars.com/api/?name=" + url.QueryEscape(local) + "&background=8bc34a&color=fff",
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  string(user.Role),
		"iat":   s.clock.Now().Unix(),
	}).SignedString(s.secret)
	if err != nil {
		log.WithError(err).Error("Failed to sign session token")
		return nil, fmt.Errorf("service: could not sign token: %w", err)
	}

	session := &models.Session{User: user, Token: token}
	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("service: could not encode session: %w", err)
	}
	if err := s.store.Set(ctx, sessionKeyPrefix+token, string(data)); err != nil {
		log.WithError(err).Error("Failed to persist session")
		return nil, fmt.Errorf("service: could not persist session: %w", err)
	}

	log.WithField("user_id", user.ID).Info("User logged in")
	return session, nil
}

// Logout удаляет сессию; неизвестный токен ошибкой не считается
func (s *authService) Logout(ctx context.Context, token string) error {
	if err := s.store.Delete(ctx, sessionKeyPrefix+token); err != nil {
		return fmt.Errorf("service: could not delete session: %w", err)
	}
	return nil
}

// Restore загружает сессию. Поврежденная запись удаляется, пользователь
// считается разлогиненным.
func (s *authService) Restore(ctx context.Context, token string) (*models.Session, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "auth",
		"method":  "Restore",
	})

	raw, err := s.store.Get(ctx, sessionKeyPrefix+token)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("service: could not load session: %w", err)
	}

	session := &models.Session{}
	if err := json.Unmarshal([]byte(raw), session); err != nil || session.Token != token {
		log.WithError(err).Error("Error parsing stored session data")
		if delErr := s.store.Delete(ctx, sessionKeyPrefix+token); delErr != nil {
			log.WithError(delErr).Warn("Failed to clear corrupted session")
		}
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Authenticate проверяет подпись токена и восстанавливает сессию
func (s *authService) Authenticate(ctx context.Context, token string) (*models.Session, error) {
	_, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		s.logger.WithError(err).Debug("Rejected session token")
		return nil, ErrSessionNotFound
	}
	return s.Restore(ctx, token)
}

// displayName превращает "juan.dela_cruz" в "Juan Dela Cruz"
func displayName(local string) string {
	replaced := strings.Map(func(r rune) rune {
		if r == '.' || r == '_' {
			return ' '
		}
		return r
	}, local)

	var b strings.Builder
	prevWord := false
	for _, r := range replaced {
		word := unicode.IsLetter(r) || unicode.IsDigit(r)
		if word && !prevWord {
			r = unicode.ToUpper(r)
		}
		b.WriteRune(r)
		prevWord = word
	}
	return b.String()
}
