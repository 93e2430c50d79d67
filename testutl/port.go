// Package testutl holds helpers shared by tests that start real listeners.
package testutl

import (
	"net"
)

// Addr returns a loopback address whose port was free a moment ago.
func Addr() string {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		panic("testutl: no free loopback port: " + err.Error())
	}
	defer lis.Close()
	return lis.Addr().String()
}
