package health

import (
	"context"
	"fmt"
	"syscall"
)

// DiskSpaceIndicator 检查路径所在文件系统的剩余空间。
type DiskSpaceIndicator struct {
	name      string
	path      string
	threshold uint64 // 最低剩余字节数
}

// NewDiskSpaceIndicator 创建磁盘空间指示器。
// path 为空时检查当前目录, threshold 为 0 时默认 10MB。
func NewDiskSpaceIndicator(name, path string, threshold uint64) *DiskSpaceIndicator {
	if name == "" {
		name = "diskspace"
	}
	if path == "" {
		path = "."
	}
	if threshold == 0 {
		threshold = 10 * 1024 * 1024
	}
	return &DiskSpaceIndicator{name: name, path: path, threshold: threshold}
}

func (i *DiskSpaceIndicator) Name() string { return i.name }

func (i *DiskSpaceIndicator) Check(ctx context.Context) Check {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(i.path, &stat); err != nil {
		return Down(fmt.Errorf("statfs %s: %w", i.path, err))
	}

	free := stat.Bavail * uint64(stat.Bsize)
	total := stat.Blocks * uint64(stat.Bsize)
	details := map[string]any{
		"path":      i.path,
		"free":      free,
		"total":     total,
		"threshold": i.threshold,
	}

	if free < i.threshold {
		return Check{Status: StatusDown, Details: details}
	}
	return UpWithDetails(details)
}
