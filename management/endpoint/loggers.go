package endpoint

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aisgo/ais-admin-go-pkg/logger"
	"github.com/aisgo/ais-admin-go-pkg/response"
)

// LoggersEndpoint 日志级别端点
// GET /        列出全部日志器与当前级别
// GET /{name}  查询单个日志器级别
// POST /{name} 调整级别，请求体 {"level": "debug"}
type LoggersEndpoint struct {
	levels *logger.LevelRegistry
}

// NewLoggersEndpoint 创建日志级别端点
func NewLoggersEndpoint(levels *logger.LevelRegistry) *LoggersEndpoint {
	return &LoggersEndpoint{levels: levels}
}

func (e *LoggersEndpoint) Name() string { return NameLoggers }

// levelPayload 级别调整请求体
type levelPayload struct {
	Level string `json:"level"`
}

func (e *LoggersEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.Trim(r.URL.Path, "/")

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		if name == "" {
			e.list(w)
			return
		}
		e.get(w, name)
	case http.MethodPost:
		if name == "" {
			response.WriteBadRequest(w, "logger name is required")
			return
		}
		e.set(w, r, name)
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		response.WriteMethodNotAllowed(w, "method not allowed")
	}
}

func (e *LoggersEndpoint) list(w http.ResponseWriter) {
	snapshot := e.levels.Snapshot()
	loggers := make(map[string]any, len(snapshot))
	for name, level := range snapshot {
		loggers[name] = map[string]string{"level": level}
	}
	writeDocument(w, http.StatusOK, map[string]any{"loggers": loggers})
}

func (e *LoggersEndpoint) get(w http.ResponseWriter, name string) {
	level, ok := e.levels.Get(name)
	if !ok {
		writeDocument(w, http.StatusNotFound, map[string]any{"error": "unknown logger"})
		return
	}
	writeDocument(w, http.StatusOK, map[string]string{"level": level.String()})
}

func (e *LoggersEndpoint) set(w http.ResponseWriter, r *http.Request, name string) {
	var payload levelPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.WriteBadRequest(w, "invalid request body")
		return
	}
	if payload.Level == "" {
		response.WriteBadRequest(w, "level is required")
		return
	}

	if _, ok := e.levels.Get(name); !ok {
		response.WriteNotFound(w, "unknown logger")
		return
	}
	if err := e.levels.Set(name, payload.Level); err != nil {
		response.WriteBadRequest(w, err.Error())
		return
	}
	response.WriteOk(w)
}
