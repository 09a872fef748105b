package main

import (
	"fmt"
	"os"

	"github.com/huehive/collab-server-go/internal/util"
)

// Generates an API token and the hash to store in accounts.token_hash.
// Usage: go run scripts/gen-token.go
func main() {
	token, err := util.GenerateToken()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("token: %s\n", token)
	fmt.Printf("token_hash: %s\n", util.HashToken(token))
}
