package serverutils

type SuccessEnvelope[T any] struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type ErrorEnvelope struct {
	Success bool        `json:"success"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func SuccessResponse[T any](message string, data T) SuccessEnvelope[T] {
	return SuccessEnvelope[T]{
		Success: true,
		Code:    200,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(code int, message string) ErrorEnvelope {
	return ErrorEnvelope{
		Success: false,
		Code:    code,
		Message: message,
		Data:    nil,
	}
}
