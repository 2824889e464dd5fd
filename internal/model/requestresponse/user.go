package requestresponse

// RegisterRequest : тело запроса регистрации
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2" example:"Ivan Petrov"`
	Email    string `json:"email" validate:"required,email" example:"user@example.com"`
	Password string `json:"password" validate:"required,min=8" example:"P@ssw0rd!"`
}

// RegisterResponse : успешный ответ регистрации, сразу с парой токенов
type RegisterResponse struct {
	UUID         string `json:"uuid" example:"123e4567-e89b-12d3-a456-426614174000"`
	Email        string `json:"email" example:"user@example.com"`
	AccessToken  string `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	RefreshToken string `json:"refresh_token" example:"sfuqwejqjoiu93e29"`
}

// UserResponse : данные пользователя
type UserResponse struct {
	UUID  string `json:"uuid" example:"123e4567-e89b-12d3-a456-426614174000"`
	Name  string `json:"name" example:"Ivan Petrov"`
	Email string `json:"email" example:"user@example.com"`
}
