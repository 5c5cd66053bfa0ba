package main

import (
	"github.com/joho/godotenv"

	"sirna/cmd"
)

func main() {
	// pull SIRNA_* settings, eg the NCBI api key, from a local .env
	godotenv.Load()

	cmd.Execute() // initialize cobra commands
}
