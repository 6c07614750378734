package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// setupSignalHandler 设置信号处理。
// 设计决策: 第一次信号优雅取消（serve 开始关闭），第二次信号强制退出（退出码 130）。
func setupSignalHandler(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()

		<-sigCh
		signal.Stop(sigCh)
		os.Exit(130)
	}()
}
