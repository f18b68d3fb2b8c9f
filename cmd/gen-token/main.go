package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/usbtecnok/kaviar-v2-sub001/internal/shared/auth"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/shared/config"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/shared/utils"
)

// Dev-утилита: выпускает JWT для ручного тестирования API и WebSocket
func main() {
	userID := flag.String("user", "", "User ID (UUID, random if empty)")
	role := flag.String("role", "DRIVER", "Role (PASSENGER|DRIVER|ADMIN)")
	flag.Parse()

	if *userID == "" {
		*userID = utils.NewUUID()
	}

	cfg := config.Load()
	jwtService := auth.NewJWTService(cfg.JWT)

	token, err := jwtService.GenerateToken(*userID, *role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("User ID: %s\n", *userID)
	fmt.Printf("Role:    %s\n", *role)
	fmt.Printf("\nAuthorization: Bearer %s\n", token)
}
