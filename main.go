/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/retro-admin/dashboard/cmd"

func main() {
	cmd.Execute()
}
