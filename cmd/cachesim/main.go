// Package main provides the cachesim command line tool.
package main

func main() {
	Execute()
}
