/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/Berylsoft/Zeon/cmd/zeon/cmd"

func main() {
	cmd.Execute()
}
