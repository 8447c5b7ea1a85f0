package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type GateStatusResponse struct {
	Operational bool `json:"operational"`
}
