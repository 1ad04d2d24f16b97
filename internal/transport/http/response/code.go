package response

// 业务错误码（直接基于 HTTP 语义）
const (
	CodeOK               = 0
	CodeBadRequest       = 400
	CodeUnauthorized     = 401
	CodeForbidden        = 403
	CodeNotFound         = 404
	CodeUnsupportedMedia = 415
	CodeTooManyRequests  = 429
	CodeServerError      = 500
	CodeBadGateway       = 502
	CodeTimeout          = 504
)

// CodeMsgMap 用于集中管理 code - msg
var CodeMsgMap = map[int]string{
	CodeOK:               "OK",
	CodeBadRequest:       "Bad Request",
	CodeUnauthorized:     "Unauthorized",
	CodeForbidden:        "Forbidden",
	CodeNotFound:         "Not Found",
	CodeUnsupportedMedia: "Unsupported Media Type",
	CodeTooManyRequests:  "Too Many Requests",
	CodeServerError:      "Internal Server Error",
	CodeBadGateway:       "Bad Gateway",
	CodeTimeout:          "Gateway Timeout",
}
