package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"car-classifieds/internal/domain"
	"car-classifieds/internal/search"
	"car-classifieds/internal/service"
	httpez "car-classifieds/internal/transport/http/ez"
	mdw "car-classifieds/internal/transport/http/middleware"
)

type ListingHandler struct {
	svc *service.ListingService
	log *zap.Logger
}

func NewListingHandler(svc *service.ListingService, l *zap.Logger) *ListingHandler {
	return &ListingHandler{svc: svc, log: l}
}

func (h *ListingHandler) Priority() int { return 10 }

// toAErr 领域错误 -> 业务码
func toAErr(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidListing):
		return httpez.BadRequest(err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return httpez.NotFound("listing not found")
	default:
		return httpez.Internal("listing store unavailable", err)
	}
}

type deleteOut struct {
	Deleted bool `json:"deleted"`
}

func (h *ListingHandler) MountAPI(api *gin.RouterGroup) {
	ez := httpez.New(api)

	httpez.RegisterAction(ez, httpez.Action[search.Query, []domain.Listing]{
		Method: http.MethodGet,
		Path:   "/listings",
		Binder: httpez.BindQuery,
		Handler: func(c *gin.Context, in *search.Query) ([]domain.Listing, error) {
			out, err := h.svc.Browse(c.Request.Context(), *in)
			if err != nil {
				return nil, toAErr(err)
			}
			return out, nil
		},
	})

	// 静态路由优先于 /listings/:id
	httpez.RegisterAction(ez, httpez.Action[search.Query, []domain.Listing]{
		Method: http.MethodGet,
		Path:   "/listings/featured",
		Binder: httpez.BindQuery,
		Handler: func(c *gin.Context, in *search.Query) ([]domain.Listing, error) {
			out, err := h.svc.Featured(c.Request.Context(), *in)
			if err != nil {
				return nil, toAErr(err)
			}
			return out, nil
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, []string]{
		Method: http.MethodGet,
		Path:   "/listings/brands",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) ([]string, error) {
			out, err := h.svc.Brands(c.Request.Context())
			if err != nil {
				return nil, toAErr(err)
			}
			return out, nil
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, []domain.Listing]{
		Method: http.MethodGet,
		Path:   "/listings/mine",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.Listing, error) {
			out, err := h.svc.Mine(c.Request.Context(), c.GetString(mdw.KeyUserID))
			if err != nil {
				return nil, toAErr(err)
			}
			return out, nil
		},
	})

	httpez.RegisterAction(ez, httpez.Action[domain.ListingFields, *domain.Listing]{
		Method: http.MethodPost,
		Path:   "/listings",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *domain.ListingFields) (*domain.Listing, error) {
			in.Owner = c.GetString(mdw.KeyUserID) // 匿名时为空
			out, err := h.svc.Create(c.Request.Context(), *in)
			if err != nil {
				return nil, toAErr(err)
			}
			return out, nil
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, *domain.Listing]{
		Method: http.MethodGet,
		Path:   "/listings/:id",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.Listing, error) {
			out, err := h.svc.Get(c.Request.Context(), c.Param("id"))
			if err != nil {
				return nil, toAErr(err)
			}
			if out == nil {
				return nil, httpez.NotFound("listing not found")
			}
			return out, nil
		},
	})

	httpez.RegisterAction(ez, httpez.Action[domain.ListingPatch, *domain.Listing]{
		Method: http.MethodPatch,
		Path:   "/listings/:id",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *domain.ListingPatch) (*domain.Listing, error) {
			out, err := h.svc.Update(c.Request.Context(), c.Param("id"), *in)
			if err != nil {
				return nil, toAErr(err)
			}
			return out, nil
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, deleteOut]{
		Method: http.MethodDelete,
		Path:   "/listings/:id",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (deleteOut, error) {
			ok, err := h.svc.Delete(c.Request.Context(), c.Param("id"))
			if err != nil {
				return deleteOut{}, toAErr(err)
			}
			return deleteOut{Deleted: ok}, nil
		},
	})
}
