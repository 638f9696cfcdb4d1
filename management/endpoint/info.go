package endpoint

import (
	"net/http"
	"runtime"
	"runtime/debug"
	"time"

	idgen "github.com/aisgo/ais-admin-go-pkg/utils/id-generator/ulid"
)

// AppInfo 应用描述信息
type AppInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// InfoEndpoint 应用与运行时信息端点
type InfoEndpoint struct {
	app        AppInfo
	instanceID string
	startedAt  time.Time
}

// NewInfoEndpoint 创建信息端点，实例标识在创建时生成
// 标识取启动时刻 ULID 的 UUID 形式, 同一集群内按启动先后可排序
func NewInfoEndpoint(app AppInfo) *InfoEndpoint {
	return &InfoEndpoint{
		app:        app,
		instanceID: idgen.ToUUID(idgen.Generate()).String(),
		startedAt:  time.Now(),
	}
}

func (e *InfoEndpoint) Name() string { return NameInfo }

// InstanceID 返回实例标识
func (e *InfoEndpoint) InstanceID() string { return e.instanceID }

func (e *InfoEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeDocument(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	doc := map[string]any{
		"app": e.app,
		"instance": map[string]any{
			"id":         e.instanceID,
			"started_at": e.startedAt.Format(time.RFC3339),
			"uptime":     time.Since(e.startedAt).Round(time.Second).String(),
		},
		"runtime": map[string]any{
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
			"num_cpu":    runtime.NumCPU(),
			"gomaxprocs": runtime.GOMAXPROCS(0),
			"os":         runtime.GOOS,
			"arch":       runtime.GOARCH,
		},
	}
	if build, ok := debug.ReadBuildInfo(); ok {
		doc["build"] = map[string]any{
			"module":  build.Main.Path,
			"version": build.Main.Version,
		}
	}
	writeDocument(w, http.StatusOK, doc)
}
