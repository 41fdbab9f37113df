package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"petitionsite/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NewUser struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// UserPatch fields are applied only when non-nil. Password changes need the
// current password.
type UserPatch struct {
	Email           *string
	FirstName       *string
	LastName        *string
	Password        *string
	CurrentPassword *string
}

type UserView struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
}

type LoginResult struct {
	UserID uint   `json:"userId"`
	Token  string `json:"token"`
}

type UserService struct {
	db       *gorm.DB
	gate     *Gate
	sessions *SessionService
}

func NewUserService(db *gorm.DB, gate *Gate, sessions *SessionService) *UserService {
	return &UserService{db: db, gate: gate, sessions: sessions}
}

func emailTaken(tx *gorm.DB, email string, exceptID uint) (bool, error) {
	var count int64
	err := tx.Model(&models.User{}).Where("email = ? AND id <> ?", email, exceptID).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return count > 0, nil
}

func (s *UserService) Register(ctx context.Context, u NewUser) (uint, error) {
	hash, err := HashPassword(u.Password)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Password:  hash,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := emailTaken(tx, u.Email, 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrEmailInUse
		}
		if err := tx.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrEmailInUse
			}
			return fmt.Errorf("insert user: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	log.Printf("[user] registered user %d", user.ID)
	return user.ID, nil
}

// Login checks the password and makes a fresh token the user's current one.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var result *LoginResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("email = ?", email).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUnauthorized
			}
			return fmt.Errorf("find user: %w", err)
		}
		if !CheckPassword(password, user.Password) {
			return ErrUnauthorized
		}
		token, err := s.sessions.Issue(tx, user.ID)
		if err != nil {
			return err
		}
		result = &LoginResult{UserID: user.ID, Token: token}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *UserService) Logout(ctx context.Context, credential string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		userID, err := s.gate.Authenticate(tx, credential)
		if err != nil {
			return err
		}
		return s.sessions.Revoke(tx, userID)
	})
}

// View returns the public profile; the email is included only when the
// credential belongs to that user.
func (s *UserService) View(ctx context.Context, credential string, id uint) (*UserView, error) {
	tx := s.db.WithContext(ctx)
	var user models.User
	if err := tx.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	view := &UserView{FirstName: user.FirstName, LastName: user.LastName}
	if credential != "" && s.gate.IsOwner(tx, id, credential) {
		view.Email = user.Email
	}
	return view, nil
}

func (s *UserService) Update(ctx context.Context, credential string, id uint, patch UserPatch) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("get user %d: %w", id, err)
		}
		if err := s.gate.RequireOwner(tx, id, credential); err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if patch.Password != nil {
			if patch.CurrentPassword == nil || !CheckPassword(*patch.CurrentPassword, user.Password) {
				return ErrWrongPassword
			}
			hash, err := HashPassword(*patch.Password)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			updates["password"] = hash
		}
		if patch.Email != nil {
			taken, err := emailTaken(tx, *patch.Email, id)
			if err != nil {
				return err
			}
			if taken {
				return ErrEmailInUse
			}
			updates["email"] = *patch.Email
		}
		if patch.FirstName != nil {
			updates["first_name"] = *patch.FirstName
		}
		if patch.LastName != nil {
			updates["last_name"] = *patch.LastName
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrEmailInUse
			}
			return fmt.Errorf("update user %d: %w", id, err)
		}
		return nil
	})
}
