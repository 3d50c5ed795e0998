package middlewares

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/dataloader/v7"
	"github.com/mmdatafocus/asset_audit_backend/config"
	"github.com/mmdatafocus/asset_audit_backend/models"
	"gorm.io/gorm"
)

type ctxKey string

const (
	loadersKey = ctxKey("dataloaders")
)

// Loaders are built per request so cached results never cross tenants.
type Loaders struct {
	EmployeeLoader *dataloader.Loader[int, *models.Employee]
	LocationLoader *dataloader.Loader[int, *models.Location]
}

func NewLoaders(conn *gorm.DB) *Loaders {
	employeeReader := &employeeReader{db: conn}
	locationReader := &locationReader{db: conn}

	return &Loaders{
		EmployeeLoader: dataloader.NewBatchedLoader(employeeReader.getEmployees, dataloader.WithWait[int, *models.Employee](time.Millisecond)),
		LocationLoader: dataloader.NewBatchedLoader(locationReader.getLocations, dataloader.WithWait[int, *models.Location](time.Millisecond)),
	}
}

func LoaderMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(WithLoaders(c.Request.Context(), NewLoaders(config.GetDB())))
		c.Next()
	}
}

func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, loaders)
}

func For(ctx context.Context) *Loaders {
	return ctx.Value(loadersKey).(*Loaders)
}

// handleError creates array of result with the same error repeated for as many items requested
func handleError[T any](itemsLength int, err error) []*dataloader.Result[T] {
	result := make([]*dataloader.Result[T], itemsLength)
	for i := 0; i < itemsLength; i++ {
		result[i] = &dataloader.Result[T]{Error: err}
	}
	return result
}

// generateLoaderResults orders results by ids; unknown ids load as nil.
func generateLoaderResults[T any](results map[int]*T, ids []int) []*dataloader.Result[*T] {
	loaderResults := make([]*dataloader.Result[*T], 0, len(ids))
	for _, id := range ids {
		loaderResults = append(loaderResults, &dataloader.Result[*T]{Data: results[id]})
	}
	return loaderResults
}
