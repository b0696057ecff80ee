package user

type credentials struct {
	Login    string `json:"login" minLength:"3" maxLength:"64" doc:"Account login"`
	Password string `json:"password" minLength:"8" doc:"Account password"`
}

type registerInput struct {
	Body credentials
}

type registerOutput struct {
	Body RegisterResponse
}

type RegisterResponse struct {
	ID     int    `json:"user_id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type loginInput struct {
	Body credentials
}

type loginOutput struct {
	Body LoginResponse
}

type LoginResponse struct {
	Token  string `json:"token"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
