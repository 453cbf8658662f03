package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"scanorder-backend/internal/apperr"
	"scanorder-backend/internal/database"
	"scanorder-backend/internal/identity"
	"scanorder-backend/internal/models"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const minPasswordLength = 8

type Service struct {
	users  UserRepository
	stores StoreLookup
	secret string
	ttl    time.Duration
}

func NewService(users UserRepository, stores StoreLookup, secret string, ttl time.Duration) *Service {
	return &Service{users: users, stores: stores, secret: secret, ttl: ttl}
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"` // customer (default) or store_owner
}

type CashierInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func validateAccount(name, email, password string) error {
	fe := apperr.FieldErrors{}
	if name == "" {
		fe.Add("name", "Name is required.")
	} else if utf8.RuneCountInString(name) > 100 {
		fe.Add("name", "Name may not be greater than 100 characters.")
	}
	if email == "" {
		fe.Add("email", "Email is required.")
	} else if _, err := mail.ParseAddress(email); err != nil || utf8.RuneCountInString(email) > 100 {
		fe.Add("email", "Email must be a valid email address.")
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		fe.Add("password", "Password must be at least 8 characters.")
	}
	return fe.Err("The given data was invalid.")
}

func (s *Service) createAccount(ctx context.Context, name, email, password string, role models.UserRole, storeID *uint) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if err := validateAccount(name, email, password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		StoreID:      storeID,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if database.IsDuplicate(err) {
			return nil, apperr.Validation("The given data was invalid.", map[string]string{
				"email": "The email has already been taken.",
			})
		}
		return nil, err
	}
	return user, nil
}

// Register creates a customer or store owner account. Cashiers are created by store owners.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	role := models.RoleCustomer
	switch models.UserRole(in.Role) {
	case "", models.RoleCustomer:
	case models.RoleStoreOwner:
		role = models.RoleStoreOwner
	default:
		return nil, apperr.Validation("The given data was invalid.", map[string]string{
			"role": "The selected role is invalid.",
		})
	}
	return s.createAccount(ctx, in.Name, in.Email, in.Password, role, nil)
}

func (s *Service) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.users.FindUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if database.IsNotFound(err) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := GenerateToken(s.secret, s.ttl, user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// ResolveActor turns verified token claims into the request's Actor. The user
// row is re-read so store assignments and ownership are always current.
func (s *Service) ResolveActor(ctx context.Context, claims *JWTCustomClaims) (identity.Actor, error) {
	user, err := s.users.FindUser(ctx, claims.UserID)
	if err != nil {
		return identity.Actor{}, err
	}
	if !identity.ValidRole(user.Role) {
		return identity.Actor{}, errors.New("user has an unknown role")
	}

	actor := identity.Actor{ID: user.ID, Name: user.Name, Role: user.Role}
	switch user.Role {
	case models.RoleCashier:
		actor.StoreID = user.StoreID
	case models.RoleStoreOwner:
		ids, err := s.stores.OwnedStoreIDs(ctx, user.ID)
		if err != nil {
			return identity.Actor{}, err
		}
		actor.OwnedStoreIDs = ids
	}
	return actor, nil
}

func (s *Service) Me(ctx context.Context, actor identity.Actor) (*models.User, error) {
	return s.users.FindUser(ctx, actor.ID)
}

// CreateCashier adds a cashier account to a store the actor owns.
func (s *Service) CreateCashier(ctx context.Context, actor identity.Actor, storeID uint, in CashierInput) (*models.User, error) {
	if !actor.CanManageStore(storeID) {
		return nil, apperr.Forbidden("This action is unauthorized.")
	}
	sid := storeID
	return s.createAccount(ctx, in.Name, in.Email, in.Password, models.RoleCashier, &sid)
}

func (s *Service) ListCashiers(ctx context.Context, actor identity.Actor, storeID uint) ([]models.User, error) {
	if !actor.CanManageStore(storeID) {
		return nil, apperr.Forbidden("This action is unauthorized.")
	}
	return s.users.ListCashiers(ctx, storeID)
}
