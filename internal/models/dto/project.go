package dto

type CreateProjectRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

type AddVolunteerRequest struct {
	VolunteerID int64 `json:"volunteer_id" validate:"required,gt=0"`
}
