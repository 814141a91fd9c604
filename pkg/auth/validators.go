package auth

// LoginPayload represents the request body for logging in. Both JSON and form
// bodies are accepted.
type LoginPayload struct {
	Username string `json:"username" form:"username" mod:"trim" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// TokenResponse is the response body for a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
