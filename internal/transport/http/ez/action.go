package ez

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	resp "car-classifieds/internal/transport/http/response"
)

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param 取
)

// AErr 统一错误对象（配合 resp.Error(int, msg)）
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error       { return &AErr{Code: resp.CodeBadRequest, Msg: msg} }
func Unauthorized(msg string) error     { return &AErr{Code: resp.CodeUnauthorized, Msg: msg} }
func NotFound(msg string) error         { return &AErr{Code: resp.CodeNotFound, Msg: msg} }
func UnsupportedMedia(msg string) error { return &AErr{Code: resp.CodeUnsupportedMedia, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: resp.CodeServerError, Msg: msg, Err: err}
}

// bodyErr 请求体超过 MaxBodyBytes 时给出明确提示，其余原样返回
func bodyErr(prefix string, err error) resp.Resp {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return resp.Error(resp.CodeBadRequest, "request body too large")
	}
	return resp.Error(resp.CodeBadRequest, prefix+err.Error())
}

// WriteErr AErr 按自身 code 输出，其它一律 500
func WriteErr(c *gin.Context, err error) {
	var ae *AErr
	if errors.As(err, &ae) {
		resp.JSON(c, resp.Error(ae.Code, ae.Error()))
		return
	}
	resp.JSON(c, resp.Error(resp.CodeServerError, err.Error()))
}

// Action 动作定义：I 入参，O 出参
type Action[I any, O any] struct {
	Method  string // GET | POST | PUT | PATCH | DELETE
	Path    string // 例："/listings/:id"
	Binder  Binder
	Auth    bool // 是否要求身份（检查 userId）
	Handler func(c *gin.Context, in *I) (O, error)
}

func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		if a.Auth && c.GetString("userId") == "" {
			resp.JSON(c, resp.Error(resp.CodeUnauthorized, "unauthorized"))
			return
		}

		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		}
		if bindErr != nil {
			resp.JSON(c, bodyErr("", bindErr))
			return
		}

		out, err := a.Handler(c, &in)
		if err != nil {
			WriteErr(c, err)
			return
		}
		resp.JSON(c, resp.OK(out))
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodPatch:
		e.g.PATCH(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default: // 默认 POST
		e.g.POST(a.Path, h)
	}
}
