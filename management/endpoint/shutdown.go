package endpoint

import (
	"net/http"
	"time"

	"github.com/aisgo/ais-admin-go-pkg/logger"
	"github.com/aisgo/ais-admin-go-pkg/response"

	"go.uber.org/zap"
)

// shutdownDelay 触发延迟，让响应先写回客户端
const shutdownDelay = 100 * time.Millisecond

// ShutdownEndpoint 远程关停端点
// 仅接受 POST；配置层面还要求显式开启才会被挂载
type ShutdownEndpoint struct {
	trigger func()
	log     *logger.Logger
}

// NewShutdownEndpoint 创建关停端点
// trigger 由装配方提供，通常转调 shutdown.Manager
func NewShutdownEndpoint(trigger func(), log *logger.Logger) *ShutdownEndpoint {
	if log == nil {
		log = logger.NewNop()
	}
	return &ShutdownEndpoint{trigger: trigger, log: log}
}

func (e *ShutdownEndpoint) Name() string { return NameShutdown }

func (e *ShutdownEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		response.WriteMethodNotAllowed(w, "method not allowed")
		return
	}
	if e.trigger == nil {
		response.WriteServiceUnavailable(w, "shutdown is not wired")
		return
	}

	e.log.Warn("Shutdown requested via management endpoint",
		zap.String("remote", r.RemoteAddr),
	)

	time.AfterFunc(shutdownDelay, e.trigger)
	response.WriteOkWithMsg(w, "shutting down")
}
