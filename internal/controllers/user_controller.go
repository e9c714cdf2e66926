package controllers

import (
	"errors"
	"net/http"

	"github.com/franciscosanchezn/partstock/internal/middleware"
	"github.com/franciscosanchezn/partstock/internal/models"
	"github.com/franciscosanchezn/partstock/internal/services"
	"github.com/gin-gonic/gin"
)

type UserController struct {
	userService services.UserService
}

func NewUserController(userService services.UserService) *UserController {
	return &UserController{userService: userService}
}

// Me godoc
// @Summary Current operator
// @Tags Operators
// @Produce json
// @Success 200 {object} models.User
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/me [get]
func (uc *UserController) Me(c *gin.Context) {
	user, err := uc.userService.GetUserByID(c.GetUint(middleware.ContextUserID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Register godoc
// @Summary Create an operator
// @Description Owners may only create operators with a role below their own
// @Tags Operators
// @Accept json
// @Produce json
// @Param user body object{username=string,role=string} true "Operator"
// @Success 201 {object} models.User
// @Failure 400 {object} models.APIError
// @Failure 403 {object} models.APIError
// @Failure 409 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/users [post]
func (uc *UserController) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required,min=3,max=50"`
		Role     string `json:"role" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	order, ok := models.RoleOrder(req.Role)
	if !ok {
		badRequest(c, "unknown role")
		return
	}
	if order <= c.GetInt(middleware.ContextRoleOrder) && c.GetString(middleware.ContextUserRole) != models.RoleDevelopment {
		c.JSON(http.StatusForbidden, models.NewAPIError(models.ErrForbidden, "cannot create an operator with a role at or above your own"))
		return
	}

	user := &models.User{
		Username: req.Username,
		Role:     req.Role,
	}
	if err := uc.userService.CreateUser(user); err != nil {
		if errors.Is(err, services.ErrUserExists) {
			c.JSON(http.StatusConflict, models.NewAPIError(models.ErrConflict, "user_already_exists"))
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}
