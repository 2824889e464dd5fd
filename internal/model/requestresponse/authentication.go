package requestresponse

// LoginRequest : тело запроса на аутентификацию
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"user@example.com"`
	Password string `json:"password" validate:"required" example:"P@ssw0rd123"`
}

// LoginResponse : ответ на успешную аутентификацию
type LoginResponse struct {
	AccessToken  string `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	RefreshToken string `json:"refresh_token" example:"sfuqwejqjoiu93e29"`
}

// CurrentUserResponse : информация о текущем пользователе
type CurrentUserResponse struct {
	UserUUID string `json:"user_uuid" example:"b6a1e1c4-4b1d-4f1e-8b29-1234567890ab"`
}

// RefreshTokenRequest : запрос на обновление пары токенов
type RefreshTokenRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required" example:"sfuqwejqjoiu93e29"`
}
