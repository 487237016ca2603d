package cmd

import (
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli"
)

// settleTime collects the burst of events an editor produces for one save
const settleTime = 100 * time.Millisecond

// Watch renders the settings file and renders it again each time it changes
func Watch(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing settings file argument")
	}
	path := ctx.Args().First()

	render := func() error {
		settings, err := loadSettings(ctx, path)
		if err != nil {
			return err
		}
		stats, err := renderOnce(settings)
		if err != nil {
			return err
		}
		return displayFrameStats(ctx.App.Writer, settings, stats)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory so that saves replacing the file are seen
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	stop := make(chan struct{})
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)
	go func() {
		<-interrupt
		close(stop)
	}()

	if err := render(); err != nil {
		logger.Errorf("render failed: %v", err)
	}
	logger.Noticef("watching %s", path)
	return watchLoop(watcher, path, stop, render)
}

// watchLoop calls render after every change to the file at path until stop
// is closed. Render errors are logged and do not end the loop.
func watchLoop(watcher *fsnotify.Watcher, path string, stop <-chan struct{}, render func() error) error {
	target := filepath.Clean(path)
	var settle <-chan time.Time
	for {
		select {
		case <-stop:
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			logger.Debugf("%s: %v", event.Name, event.Op)
			settle = time.After(settleTime)

		case <-settle:
			settle = nil
			logger.Noticef("%s changed, rendering", path)
			if err := render(); err != nil {
				logger.Errorf("render failed: %v", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}
