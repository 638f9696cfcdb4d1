package endpoint

import (
	"net/http"
	"net/http/pprof"
	rpprof "runtime/pprof"
	"sort"
	"strings"
)

// PprofEndpoint 性能剖析端点，转发到 net/http/pprof
type PprofEndpoint struct{}

// NewPprofEndpoint 创建剖析端点
func NewPprofEndpoint() *PprofEndpoint { return &PprofEndpoint{} }

func (e *PprofEndpoint) Name() string { return NamePprof }

func (e *PprofEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/cmdline":
		pprof.Cmdline(w, r)
	case "/profile":
		pprof.Profile(w, r)
	case "/symbol":
		pprof.Symbol(w, r)
	case "/trace":
		pprof.Trace(w, r)
	case "/", "":
		e.index(w)
	default:
		// 命名 profile（heap、goroutine、block ...），未知名称由 pprof 返回 404
		pprof.Handler(strings.Trim(r.URL.Path, "/")).ServeHTTP(w, r)
	}
}

// index 列出可用 profile 名称
func (e *PprofEndpoint) index(w http.ResponseWriter) {
	profiles := rpprof.Profiles()
	names := make([]string, 0, len(profiles)+4)
	for _, p := range profiles {
		names = append(names, p.Name())
	}
	names = append(names, "cmdline", "profile", "symbol", "trace")
	sort.Strings(names)
	writeDocument(w, http.StatusOK, map[string]any{"profiles": names})
}
