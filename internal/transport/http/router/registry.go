package router

import (
	"sort"
	"sync"

	"github.com/gin-gonic/gin"
)

// APIModule 挂到 /api/v1
type APIModule interface{ MountAPI(*gin.RouterGroup) }

// AdminModule 挂到 /admin/v1，组上已有管理员鉴权
type AdminModule interface{ MountAdmin(*gin.RouterGroup) }

// prioritizer 数值小的先挂载，未实现为 defaultPriority
type prioritizer interface{ Priority() int }

const defaultPriority = 100

var (
	mu        sync.RWMutex
	apiMods   []APIModule
	adminMods []AdminModule
)

// Register 一个 handler 可同时实现两个接口
func Register(mod any) {
	mu.Lock()
	defer mu.Unlock()
	if m, ok := mod.(APIModule); ok {
		apiMods = append(apiMods, m)
	}
	if m, ok := mod.(AdminModule); ok {
		adminMods = append(adminMods, m)
	}
}

func MountAllAPI(g *gin.RouterGroup) {
	for _, m := range sorted(&apiMods) {
		m.MountAPI(g)
	}
}

func MountAllAdmin(g *gin.RouterGroup) {
	for _, m := range sorted(&adminMods) {
		m.MountAdmin(g)
	}
}

// sorted 返回按优先级排好的副本，同优先级保持注册顺序
func sorted[T any](mods *[]T) []T {
	mu.RLock()
	out := append([]T(nil), (*mods)...)
	mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		return priorityOf(out[i]) < priorityOf(out[j])
	})
	return out
}

func priorityOf(v any) int {
	if p, ok := v.(prioritizer); ok {
		return p.Priority()
	}
	return defaultPriority
}
