package main

import "github.com/docstone/ingest-go/cmd"

func main() {
	cmd.Execute()
}
