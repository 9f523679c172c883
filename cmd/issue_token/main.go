package main

import (
	"fmt"
	"os"

	"taskboard/internal/logger"
	"taskboard/internal/service"
)

// Prints an owner token signed with JWT_SECRET, for scripts and ws_smoke.
func main() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logger.Fatal("JWT_SECRET not set")
	}
	service.InitJWT(secret)

	token, err := service.GenerateJWT(service.OwnerSubject)
	if err != nil {
		logger.Fatal("sign token", "error", err)
	}
	fmt.Println(token)
}
