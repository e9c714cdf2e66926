package services

import (
	"errors"
	"fmt"

	"github.com/franciscosanchezn/partstock/internal/models"
	"gorm.io/gorm"
)

var ErrUserExists = errors.New("user_already_exists")

type UserService interface {
	CreateUser(user *models.User) error
	// EnsureUser returns the named operator, creating it with role when missing.
	EnsureUser(username, role string) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
}

type userService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) UserService {
	return &userService{db: db}
}

func (s *userService) CreateUser(user *models.User) error {
	order, ok := models.RoleOrder(user.Role)
	if !ok {
		return fmt.Errorf("unknown role %q", user.Role)
	}
	user.Username = models.NormalizeUsername(user.Username)
	if user.Username == "" {
		return errors.New("username is required")
	}
	user.RoleOrder = order

	var existing models.User
	if err := s.db.Where("username = ?", user.Username).First(&existing).Error; err == nil {
		return ErrUserExists
	}

	return s.db.Create(user).Error
}

func (s *userService) EnsureUser(username, role string) (*models.User, error) {
	existing, err := s.GetUserByUsername(username)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user := &models.User{Username: username, Role: role}
	if err := s.CreateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ?", models.NormalizeUsername(username)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *userService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
