package models

import "time"

// Project groups volunteers under a managing user.
type Project struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	ManagerID int64     `json:"manager_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Volunteer is a roster entry for a project.
type Volunteer struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
