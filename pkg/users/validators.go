package users

// RegisterPayload represents the request body for registering a user.
type RegisterPayload struct {
	Username string `json:"username" mod:"trim" validate:"required,min=3,max=50"`
	Email    string `json:"email" mod:"trim" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// UpdateUserPayload represents the request body for updating a user. The
// admin flag is deliberately not part of this payload; it can only be changed
// through the admin-only endpoint.
type UpdateUserPayload struct {
	Username *string `json:"username" mod:"trim" validate:"omitempty,min=3,max=50"`
	Email    *string `json:"email" mod:"trim" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=8"`
}

// SetAdminPayload represents the request body for granting or revoking admin
// rights.
type SetAdminPayload struct {
	IsAdmin *bool `json:"is_admin"`
}

// ListUsersQuery represents the query parameters for listing users.
type ListUsersQuery struct {
	Limit  int `query:"limit" default:"50" validate:"min=1,max=100"`
	Offset int `query:"offset" default:"0" validate:"min=0"`
}
