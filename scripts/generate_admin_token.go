//go:build ignore

package main

import (
	"fmt"
	"os"
	"time"

	"kmj_screener/middleware"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: JWT_SECRET=... go run scripts/generate_admin_token.go <subject> [ttl]")
		fmt.Println("Example: JWT_SECRET=s3cret go run scripts/generate_admin_token.go ops 720h")
		os.Exit(1)
	}

	ttl := 24 * time.Hour
	if len(os.Args) > 2 {
		d, err := time.ParseDuration(os.Args[2])
		if err != nil {
			fmt.Printf("Invalid ttl: %v\n", err)
			os.Exit(1)
		}
		ttl = d
	}

	token, err := middleware.IssueAdminToken(os.Getenv("JWT_SECRET"), os.Args[1], ttl)
	if err != nil {
		fmt.Printf("Error generating token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Subject: %s\n", os.Args[1])
	fmt.Printf("Expires: %s\n", time.Now().Add(ttl).Format(time.RFC3339))
	fmt.Printf("Token: %s\n", token)
	fmt.Println("\nUse it as: Authorization: Bearer <token>")
}
