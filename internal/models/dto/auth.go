package dto

import "github.com/hongminglow/volunteer-hours/internal/models"

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"max=128"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=volunteer staff_member project_manager admin"`
}
