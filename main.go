package main

import "github.com/rawspec-testing/tblverify/cmd"

func main() {
	cmd.Execute()
}
