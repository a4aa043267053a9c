package resp

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type ResponseStruct struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

func Success(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, ResponseStruct{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func Error(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ResponseStruct{
		Success: false,
		Message: message,
		Code:    code,
	})
}

func ValidationError(c *gin.Context, errs map[string][]string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ResponseStruct{
		Success: false,
		Message: ErrValidation,
		Errors:  errs,
	})
}
