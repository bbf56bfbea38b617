package utils

import (
	"fmt"

	"bitbucket.org/mmdatafocus/catalog_backend/config"
)

// cached allowed-path sets per role, invalidated on any role/module change
func PathsCacheKey(roleId int) string {
	return "Paths:" + fmt.Sprint(roleId)
}

func ClearPathsCache(roleId int) error {
	return config.RemoveRedisKey(PathsCacheKey(roleId))
}
