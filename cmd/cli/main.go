// tfc 是代币部署与交互命令行客户端
//
// 二进制名: tfc
package main

func main() {
	Execute()
}
