// Package main 启动应用程序
package main

import "github.com/yeisme/dropvault/pkg/cmd"

//	@title			DropVault API
//	@version		1.0
//	@description	DropVault 是一个会过期的文件暂存与分享服务，支持单次与分块上传、分享码下载和后台过期回收。

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

//	@contact.name	yeisme
//	@contact.email	yefun2004@gmail.com.

func main() {
	if err := cmd.Execute(); err != nil {
		panic(err)
	}
}
