package dto

type SecretRequest struct {
	Secret string `json:"secret" validate:"required,max=128"`
}

type PinRequest struct {
	Pin string `json:"pin" validate:"required,numeric,min=4,max=8"`
}

type AccessRequest struct {
	Token string `json:"token" validate:"required"`
	Pin   string `json:"pin" validate:"required,numeric,min=4,max=8"`
}
