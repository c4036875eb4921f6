/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "mudclient/cmd"

func main() {
	cmd.Execute()
}
