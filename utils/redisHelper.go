package utils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/bsm/redislock"
	"github.com/mmdatafocus/asset_audit_backend/config"
)

func GetCacheLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("CACHE_LIFESPAN"))
	if err != nil {
		lifespan = 1
	}
	return time.Duration(lifespan) * time.Hour
}

func GetTypeName[T any]() string {
	var v T
	return reflect.TypeOf(v).Name()
}

func redisItemKey[T any](id int) string {
	return GetTypeName[T]() + ":" + fmt.Sprint(id)
}

// store instance as Type:$id
func StoreRedis[T any](obj *T, id int) error {
	return config.SetRedisObject(redisItemKey[T](id), obj, GetCacheLifespan())
}

// get Type:$id from redis, nil if absent
func RetrieveRedis[T any](id int) (*T, error) {
	var result T
	exists, err := config.GetRedisObject(redisItemKey[T](id), &result)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return &result, nil
}

// remove instances Type:$id
func RemoveRedisItem[T any](ids ...int) error {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, redisItemKey[T](id))
	}
	return config.RemoveRedisKey(keys...)
}

// BusinessLock holds lockType:businessId until the returned release is called.
func BusinessLock(ctx context.Context, businessId string, lockType string, moduleName string, functionName string) (func(), error) {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		config.LogError(logger, moduleName, functionName, "Redis lock not initialized", businessId, errors.New("redis lock is nil"))
		return nil, fmt.Errorf("%w (redis lock not initialized)", ErrServiceNotReady)
	}
	lockKey := fmt.Sprintf("%s:%s", lockType, businessId)
	lock, err := locker.Obtain(ctx, lockKey, 5*time.Minute, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		config.LogError(logger, moduleName, functionName, "Could not obtain lock for businessID", businessId, err)
		return nil, errors.New("another import is already running for this business")
	} else if err != nil {
		config.LogError(logger, moduleName, functionName, "Error obtaining lock for businessID", businessId, err)
		return nil, err
	}
	return func() {
		// the request context may already be cancelled
		_ = lock.Release(context.Background())
	}, nil
}
