package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jimyag/cloudconsole/pkg/apierror"
	"github.com/jimyag/cloudconsole/pkg/ginx"
	"github.com/rs/zerolog"
)

type Catalog struct {
	catalog CatalogService
}

func NewCatalog(catalog CatalogService) *Catalog {
	return &Catalog{catalog: catalog}
}

func (c *Catalog) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/catalog/:kind", ginx.Adapt5(c.GetCatalog))
}

func (c *Catalog) GetCatalog(ctx *gin.Context, args *CatalogArgs) (*CatalogResponse, error) {
	items, err := c.catalog.Get(ctx, args.Kind, args.Force)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("kind", args.Kind).Msg("Failed to get catalog")
		return nil, catalogError(err)
	}
	return &CatalogResponse{Kind: args.Kind, Items: items}, nil
}

// catalogError 缓存中没有任何数据时的获取失败视为后端错误
func catalogError(err error) error {
	if apierror.As(err) != nil {
		return err
	}
	return apierror.WrapError(apierror.ErrBackendFailure, err.Error(), err)
}
