package main

import "github.com/dbsmedya/formrows/cmd/formrows/cmd"

func main() {
	cmd.Execute()
}
