package configwatcher

import (
	"coder_edu_progress/internal/config"
	"coder_edu_progress/pkg/logger"
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

type ConfigReloader func(cfg *config.Config)

const defaultDebounce = time.Second

// Watcher 监听配置目录，文件变化经防抖后重新加载并回调。
// 监听目录而不是文件本身，编辑器以重命名方式保存时也能收到事件。
type Watcher struct {
	dir      string
	file     string
	debounce time.Duration
	reload   ConfigReloader
	fsw      *fsnotify.Watcher
}

func New(configPath string, reload ConfigReloader) (*Watcher, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(absPath)); err != nil {
		fsw.Close()
		return nil, err
	}

	return &Watcher{
		dir:      filepath.Dir(absPath),
		file:     filepath.Base(absPath),
		debounce: defaultDebounce,
		reload:   reload,
		fsw:      fsw,
	}, nil
}

// Run 阻塞直到 ctx 取消
func (w *Watcher) Run(ctx context.Context) {
	defer w.fsw.Close()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != w.file {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// 防抖
			timer.Reset(w.debounce)
		case <-timer.C:
			cfg, err := config.LoadConfig(w.dir)
			if err != nil {
				logger.Log.Error("Failed to reload config", zap.Error(err))
				continue
			}
			logger.Log.Info("Config reloaded", zap.String("path", filepath.Join(w.dir, w.file)))
			w.reload(cfg)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Log.Error("Config watcher error", zap.Error(err))
		}
	}
}
