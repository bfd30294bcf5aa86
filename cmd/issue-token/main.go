package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/stemsi/gramtest-backend/internal/config"
	"github.com/stemsi/gramtest-backend/internal/logger"
	"github.com/stemsi/gramtest-backend/internal/service"
)

// issue-token mints a development JWT signed with JWT_SECRET.
//
//	issue-token -type student -id 12 -class 3
//	issue-token -type teacher -id 7
func main() {
	tokenType := flag.String("type", string(service.TokenTypeStudent), "Token type: student or teacher")
	userID := flag.Int("id", 0, "Student or teacher id")
	classID := flag.Int("class", 0, "Class id of the student")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	if *userID <= 0 {
		fmt.Fprintln(os.Stderr, "Error: -id is required")
		flag.PrintDefaults()
		os.Exit(2)
	}

	auth := service.NewAuthService(cfg)

	var (
		token string
		err   error
	)
	switch service.TokenType(*tokenType) {
	case service.TokenTypeStudent:
		token, err = auth.GenerateStudentToken(*userID, *classID)
	case service.TokenTypeTeacher:
		token, err = auth.GenerateTeacherToken(*userID)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown token type %q\n", *tokenType)
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to sign token")
	}

	log.Info().
		Str("type", *tokenType).
		Int("id", *userID).
		Dur("expires_in", cfg.JWTExpiry).
		Msg("Token issued")
	fmt.Println(token)
}
