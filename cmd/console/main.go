package main

import "github.com/dropDatabas3/hellojohn-admin/cmd/console/cmd"

func main() {
	cmd.Execute()
}
