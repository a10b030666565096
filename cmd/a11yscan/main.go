// Package main is the entry point of the a11yscan binary.
package main

import "github.com/grafana/a11yscan/cmd"

func main() {
	cmd.Execute()
}
