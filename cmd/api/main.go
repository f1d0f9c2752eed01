// Command api 用户端服务。默认启动 HTTP；子命令 seed / migrate 只做初始化后退出
package main

import (
	"os"

	_ "go.uber.org/automaxprocs"
)

func main() {
	err := rootCmd.Execute()
	if app != nil {
		app.cleanup() // RunE 出错时也要 flush 日志、关连接
	}
	if err != nil {
		os.Exit(1)
	}
}
