package identity

// LoginRequest carries the operator password.
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued admin token.
type LoginResponse struct {
	Token string `json:"token"`
}
