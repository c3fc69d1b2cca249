package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/logger"
	"expensetracker/internal/models"
)

const tokenIssuer = "expense-tracker"

// TokenConfig controls the session tokens issued by the database gateway.
type TokenConfig struct {
	Secret string
	Expiry time.Duration
}

// sessionClaims represents the claims in a session token
type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// DatabaseBackend owns the account, profile and expense tables and hands out
// per-client gateway connections.
type DatabaseBackend struct {
	db     *gorm.DB
	tokens TokenConfig
	now    func() time.Time
}

// NewDatabaseBackend creates a backend over db.
func NewDatabaseBackend(db *gorm.DB, tokens TokenConfig) *DatabaseBackend {
	if tokens.Expiry <= 0 {
		tokens.Expiry = 24 * time.Hour
	}
	return &DatabaseBackend{db: db, tokens: tokens, now: time.Now}
}

// Connect opens a gateway connection. A valid token restores its session;
// an invalid or expired one is ignored.
func (b *DatabaseBackend) Connect(ctx context.Context, token string) Gateway {
	g := &databaseGateway{backend: b}
	if token == "" {
		return g
	}

	identity, err := b.identityFromToken(ctx, token)
	if err != nil {
		logger.Get().Debugw("discarding session token", "error", err)
		return g
	}
	g.auth.restore(token, identity)
	return g
}

// CreateUser registers a new account. name may be empty.
func (b *DatabaseBackend) CreateUser(ctx context.Context, email, password, name string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "email and password are required")
	}

	db := b.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrGateway, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateEmail
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{Email: email, Password: string(hashedPassword), FullName: strings.TrimSpace(name)}
	if err := db.Create(user).Error; err != nil {
		// Lost a race against a concurrent sign-up for the same address.
		if db.Model(&models.User{}).Where("email = ?", email).Count(&count); count > 0 {
			return nil, apperrors.ErrDuplicateEmail
		}
		return nil, apperrors.Wrap(apperrors.ErrGateway, err)
	}
	return user, nil
}

func (b *DatabaseBackend) issueToken(user *models.User) (string, error) {
	now := b.now()
	claims := &sessionClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(b.tokens.Expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   user.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(b.tokens.Secret))
}

func (b *DatabaseBackend) parseToken(tokenString string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(b.tokens.Secret), nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(b.now))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}
	return claims, nil
}

func (b *DatabaseBackend) identityFromToken(ctx context.Context, token string) (*models.Identity, error) {
	claims, err := b.parseToken(token)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := b.db.WithContext(ctx).Where("id = ?", claims.Subject).First(&user).Error; err != nil {
		return nil, fmt.Errorf("session user: %w", err)
	}
	return user.Identity(), nil
}

// databaseGateway is one client's connection to a DatabaseBackend.
type databaseGateway struct {
	backend *DatabaseBackend
	auth    authState
}

func (g *databaseGateway) db(ctx context.Context) *gorm.DB {
	return g.backend.db.WithContext(ctx)
}

// me returns the signed-in identity; row-level access hangs off it.
func (g *databaseGateway) me() (*models.Identity, error) {
	_, identity := g.auth.current()
	if identity == nil {
		return nil, apperrors.ErrNotSignedIn
	}
	return identity, nil
}

func (g *databaseGateway) CurrentIdentity(_ context.Context) (*models.Identity, error) {
	token, identity := g.auth.current()
	if token == "" {
		return nil, nil
	}
	if _, err := g.backend.parseToken(token); err != nil {
		g.auth.clear()
		return nil, nil
	}
	return identity, nil
}

func (g *databaseGateway) SubscribeIdentityChanges(handler IdentityHandler) func() {
	return g.auth.subscribe(handler)
}

func (g *databaseGateway) SessionToken() string {
	token, _ := g.auth.current()
	return token
}

func (g *databaseGateway) SignUp(ctx context.Context, email, password, name string) error {
	_, err := g.backend.CreateUser(ctx, email, password, name)
	return err
}

func (g *databaseGateway) SignIn(ctx context.Context, email, password string) error {
	var user models.User
	err := g.db(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrGateway, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return apperrors.ErrInvalidCredentials
	}

	token, err := g.backend.issueToken(&user)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	now := g.backend.now()
	if err := g.db(ctx).Model(&user).Update("last_sign_in_at", now).Error; err != nil {
		logger.Get().Warnw("failed to record sign-in time", "error", err, "user_id", user.ID)
	}

	g.auth.set(token, user.Identity())
	return nil
}

func (g *databaseGateway) SignOut(_ context.Context) error {
	g.auth.clear()
	return nil
}

func (g *databaseGateway) FetchProfile(ctx context.Context, owner string) (*models.Profile, error) {
	me, err := g.me()
	if err != nil {
		return nil, err
	}
	if owner != me.ID {
		return nil, apperrors.ErrProfileNotFound
	}

	var profile models.Profile
	err = g.db(ctx).Where("user_id = ?", me.ID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrProfileNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrGateway, err)
	}
	return &profile, nil
}

func (g *databaseGateway) CreateProfile(ctx context.Context, defaults models.Profile) (*models.Profile, error) {
	me, err := g.me()
	if err != nil {
		return nil, err
	}

	profile := defaults
	profile.ID = ""
	profile.UserID = me.ID
	profile.Version = 1
	if err := g.db(ctx).Create(&profile).Error; err != nil {
		// A concurrent load may have created it first.
		if existing, fetchErr := g.FetchProfile(ctx, me.ID); fetchErr == nil {
			return existing, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrGateway, err)
	}
	return &profile, nil
}

func (g *databaseGateway) UpsertProfile(ctx context.Context, profile models.Profile) (*models.Profile, error) {
	me, err := g.me()
	if err != nil {
		return nil, err
	}

	var saved models.Profile
	err = g.db(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Profile
		err := tx.Where("user_id = ?", me.ID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			saved = profile
			saved.ID = ""
			saved.UserID = me.ID
			saved.Version = 1
			return tx.Create(&saved).Error
		}
		if err != nil {
			return err
		}

		if profile.Version != 0 && profile.Version != existing.Version {
			return apperrors.ErrConflict
		}

		result := tx.Model(&models.Profile{}).
			Where("id = ? AND version = ?", existing.ID, existing.Version).
			Updates(map[string]interface{}{
				"name":       profile.Name,
				"budget":     profile.Budget,
				"currency":   profile.Currency,
				"theme":      profile.Theme,
				"version":    existing.Version + 1,
				"updated_at": g.backend.now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrConflict
		}
		return tx.Where("id = ?", existing.ID).First(&saved).Error
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Wrap(apperrors.ErrGateway, err)
	}
	return &saved, nil
}

func (g *databaseGateway) ListExpenses(ctx context.Context, owner string) ([]models.Expense, error) {
	me, err := g.me()
	if err != nil {
		return nil, err
	}

	expenses := []models.Expense{}
	if owner != me.ID {
		return expenses, nil
	}
	if err := g.db(ctx).Where("user_id = ?", me.ID).Order("created_at DESC").Order("id DESC").Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrGateway, err)
	}
	return expenses, nil
}

func (g *databaseGateway) InsertExpense(ctx context.Context, expense models.Expense) (*models.Expense, error) {
	me, err := g.me()
	if err != nil {
		return nil, err
	}

	row := expense
	row.ID = ""
	row.CreatedAt = time.Time{}
	row.UserID = me.ID
	if err := g.db(ctx).Create(&row).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrGateway, err)
	}
	return &row, nil
}

func (g *databaseGateway) DeleteExpense(ctx context.Context, id string) error {
	me, err := g.me()
	if err != nil {
		return err
	}

	result := g.db(ctx).Where("id = ? AND user_id = ?", id, me.ID).Delete(&models.Expense{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrGateway, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrExpenseNotFound
	}
	return nil
}
