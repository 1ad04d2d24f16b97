package ez

import (
	"mime/multipart"

	"github.com/gin-gonic/gin"

	resp "car-classifieds/internal/transport/http/response"
)

// EZ 轻封装：handler 只返回 (data, err)，统一包成 {code,msg,data}
type EZ struct{ g *gin.RouterGroup }

func New(g *gin.RouterGroup) EZ { return EZ{g: g} }

// POSTFILES 处理 multipart/form-data 多文件上传
func POSTFILES(e EZ, path string, fieldName string, h func(c *gin.Context, files []*multipart.FileHeader) (any, error)) {
	e.g.POST(path, func(c *gin.Context) {
		form, err := c.MultipartForm()
		if err != nil {
			resp.JSON(c, bodyErr("invalid multipart form: ", err))
			return
		}
		files := form.File[fieldName]
		if len(files) == 0 {
			resp.JSON(c, resp.Error(resp.CodeBadRequest, "no files uploaded"))
			return
		}
		data, err := h(c, files)
		if err != nil {
			WriteErr(c, err)
			return
		}
		resp.JSON(c, resp.OK(data))
	})
}
