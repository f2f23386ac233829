package config

import (
	"slices"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// HotConfig wraps Config with hot-reload support.
type HotConfig struct {
	mu      sync.RWMutex
	cfg     *Config
	path    string
	subs    []func(*Config)
	watcher *fsnotify.Watcher
}

func NewHotConfig(path string) (*HotConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &HotConfig{cfg: cfg, path: path}, nil
}

func (hc *HotConfig) Get() *Config {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return hc.cfg
}

// OnReload registers a callback for config changes. Callbacks run on the
// watcher goroutine.
func (hc *HotConfig) OnReload(fn func(*Config)) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.subs = append(hc.subs, fn)
}

// reload keeps the previous config when the new file does not load.
func (hc *HotConfig) reload() {
	cfg, err := Load(hc.path)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "HotConfig.reload",
			"path":     hc.path,
		}).WithError(err).Error("config reload failed")
		return
	}
	hc.mu.Lock()
	hc.cfg = cfg
	subs := slices.Clone(hc.subs)
	hc.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "HotConfig.reload",
		"path":     hc.path,
	}).Info("config reloaded")
	for _, fn := range subs {
		fn(cfg)
	}
}

// Watch starts watching the config file for changes. It is a no-op for an
// empty path.
func (hc *HotConfig) Watch() error {
	if hc.path == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					hc.reload()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logrus.WithFields(logrus.Fields{
					"function": "HotConfig.Watch",
				}).WithError(err).Warn("config watcher error")
			}
		}
	}()

	if err := watcher.Add(hc.path); err != nil {
		watcher.Close()
		return err
	}
	hc.mu.Lock()
	hc.watcher = watcher
	hc.mu.Unlock()
	return nil
}

// Close stops the watcher.
func (hc *HotConfig) Close() error {
	hc.mu.Lock()
	w := hc.watcher
	hc.watcher = nil
	hc.mu.Unlock()
	if w == nil {
		return nil
	}
	return w.Close()
}
