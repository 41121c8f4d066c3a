package main

import (
	"cedulero-backend/cmd/cedulero/cmd"
)

func main() {
	cmd.Execute()
}
