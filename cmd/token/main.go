// Command token opens a session in the shared session store and prints its
// bearer token. It is the only way to obtain a token; the API has no login.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	appsession "github.com/tuition/backend/internal/application/session"
	"github.com/tuition/backend/internal/domain/identity"
	"github.com/tuition/backend/internal/domain/shared"
	"github.com/tuition/backend/internal/infrastructure/auth"
	"github.com/tuition/backend/internal/infrastructure/config"
	"github.com/tuition/backend/internal/infrastructure/logger"
	"github.com/tuition/backend/internal/infrastructure/session"
	"go.uber.org/zap"
)

func main() {
	var (
		role      string
		studentID string
		className string
		subject   string
	)
	flag.StringVar(&role, "role", "admin", "Session role: admin or student")
	flag.StringVar(&studentID, "student-id", "", "Student ID (required for -role student)")
	flag.StringVar(&className, "class", "", "Class name recorded on a student session")
	flag.StringVar(&subject, "subject", "", "Who the session is for (default: the role)")
	flag.Parse()

	log, err := logger.New(logger.Config{Level: "warn", Format: "console", Output: "stderr"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	r, err := parseRole(role, studentID, className)
	if err != nil {
		log.Fatal("Invalid role", zap.Error(err))
	}
	if subject == "" {
		subject = string(r.Kind())
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if cfg.Session.Store == config.SessionStoreMemory {
		log.Fatal("session.store is memory; a token minted here would never resolve in the server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clock := shared.SystemClock{}
	backend, err := session.Open(ctx, cfg, clock)
	if err != nil {
		log.Fatal("Failed to open session store", zap.Error(err))
	}
	defer func() {
		_ = backend.Close()
	}()

	svc := appsession.NewService(backend.Store, auth.NewJWTService(cfg.JWT), clock, cfg.Session.TTL, log)
	opened, err := svc.Open(ctx, subject, r)
	if err != nil {
		log.Fatal("Failed to open session", zap.Error(err))
	}

	fmt.Println(opened.Token)
	fmt.Fprintf(os.Stderr, "session %s (%s) expires %s\n",
		opened.Session.ID, r.Kind(), opened.Expires.Format(time.RFC3339))
}

func parseRole(kind, studentID, className string) (identity.Role, error) {
	switch identity.RoleKind(kind) {
	case identity.RoleKindAdmin:
		return identity.AdminRole{}, nil
	case identity.RoleKindStudent:
		id, err := uuid.Parse(studentID)
		if err != nil {
			return nil, fmt.Errorf("-student-id must be a UUID: %w", err)
		}
		return identity.NewStudentRole(id, className)
	default:
		return nil, fmt.Errorf("unknown role %q", kind)
	}
}
