package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

const (
	CodeSuccess       = 0
	CodeInvalidParams = 40000
	CodeTableNotFound = 40400
	CodeServerError   = 50000
)

var codeMessages = map[int]string{
	CodeSuccess:       "success",
	CodeInvalidParams: "参数校验失败",
	CodeTableNotFound: "牌桌不存在",
	CodeServerError:   "服务器内部错误",
}

var codeStatus = map[int]int{
	CodeSuccess:       http.StatusOK,
	CodeInvalidParams: http.StatusBadRequest,
	CodeTableNotFound: http.StatusNotFound,
	CodeServerError:   http.StatusInternalServerError,
}

func success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: CodeSuccess, Message: codeMessages[CodeSuccess], Data: data})
}

func fail(c *gin.Context, code int) {
	c.JSON(codeStatus[code], Response{Code: code, Message: codeMessages[code]})
}
