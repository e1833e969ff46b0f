// Command admin provisions dashboard accounts and loads spreadsheets from the shell.
//
//	admin migrate [up|down|status|...]
//	admin create-user -email registrar@school.org -name "..." -role ADMIN
//	admin import -file students.xlsx
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/noah-isme/bagrut-dashboard-api/internal/models"
	"github.com/noah-isme/bagrut-dashboard-api/internal/repository"
	"github.com/noah-isme/bagrut-dashboard-api/internal/service"
	"github.com/noah-isme/bagrut-dashboard-api/migrations"
	"github.com/noah-isme/bagrut-dashboard-api/pkg/cache"
	"github.com/noah-isme/bagrut-dashboard-api/pkg/config"
	"github.com/noah-isme/bagrut-dashboard-api/pkg/database"
	"github.com/noah-isme/bagrut-dashboard-api/pkg/logger"
)

var errUsage = errors.New("usage: admin <migrate|create-user|import> [flags]")

type createUserArgs struct {
	Email string
	Name  string
	Role  models.UserRole
}

type importArgs struct {
	File string
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal(errUsage)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr, os.Args[1], os.Args[2:]); err != nil {
		logr.Fatal("admin command failed", zap.String("command", os.Args[1]), zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger, command string, args []string) error {
	switch command {
	case "migrate":
		return migrate(cfg, args)
	case "create-user":
		parsed, err := parseCreateUser(args)
		if err != nil {
			return err
		}
		password, err := readPassword(os.Stdin, os.Stderr)
		if err != nil {
			return err
		}
		return createUser(ctx, cfg, logr, parsed, password)
	case "import":
		parsed, err := parseImport(args)
		if err != nil {
			return err
		}
		return importFile(ctx, cfg, logr, parsed)
	default:
		return errUsage
	}
}

// migrate runs a goose command against the embedded migrations; it defaults to "up".
func migrate(cfg *config.Config, args []string) error {
	command, rest := migrateCommand(args)

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Run(command, db.DB, ".", rest...)
}

func migrateCommand(args []string) (string, []string) {
	if len(args) == 0 {
		return "up", nil
	}
	return args[0], args[1:]
}

func parseCreateUser(args []string) (createUserArgs, error) {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var out createUserArgs
	var role string
	fs.StringVar(&out.Email, "email", "", "login email")
	fs.StringVar(&out.Name, "name", "", "full name")
	fs.StringVar(&role, "role", string(models.RoleViewer), "ADMIN or VIEWER")
	if err := fs.Parse(args); err != nil {
		return out, err
	}
	out.Role = models.UserRole(strings.ToUpper(strings.TrimSpace(role)))
	if out.Email == "" || out.Name == "" {
		return out, errors.New("create-user requires -email and -name")
	}
	if !out.Role.Valid() {
		return out, fmt.Errorf("unknown role %q", role)
	}
	return out, nil
}

func parseImport(args []string) (importArgs, error) {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var out importArgs
	fs.StringVar(&out.File, "file", "", "path to a .xlsx or .csv file")
	if err := fs.Parse(args); err != nil {
		return out, err
	}
	if out.File == "" {
		return out, errors.New("import requires -file")
	}
	return out, nil
}

// readPassword prompts on a terminal without echo. Piped input is read as one line.
func readPassword(in *os.File, prompt io.Writer) (string, error) {
	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(prompt, "Password: ")
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(raw), nil
	}
	return readPasswordLine(in)
}

func readPasswordLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("password must not be empty")
	}
	return line, nil
}

func createUser(ctx context.Context, cfg *config.Config, logr *zap.Logger, args createUserArgs, password string) error {
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	authSvc := service.NewAuthService(repository.NewUserRepository(db), validator.New(), logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
	})
	user, err := authSvc.CreateUser(ctx, service.CreateUserRequest{
		Email:    args.Email,
		FullName: args.Name,
		Role:     args.Role,
		Password: password,
	})
	if err != nil {
		return err
	}
	fmt.Printf("created %s user %s (%s)\n", user.Role, user.Email, user.ID)
	return nil
}

func importFile(ctx context.Context, cfg *config.Config, logr *zap.Logger, args importArgs) error {
	f, err := os.Open(args.File)
	if err != nil {
		return fmt.Errorf("open %s: %w", args.File, err)
	}
	defer f.Close()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	// Cached dashboards are dropped when Redis is reachable.
	cacheRepo := repository.NewCacheRepository(nil, logr)
	if cfg.Dashboard.CacheEnabled {
		if client, err := cache.NewRedis(cfg.Redis); err == nil {
			cacheRepo = repository.NewCacheRepository(client, logr)
		} else {
			logr.Warn("redis unavailable, cached dashboards will expire on their own", zap.Error(err))
		}
	}
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, nil, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled)

	importSvc := service.NewImportService(repository.NewStudentRepository(db), cacheSvc, nil, logr, cfg.Import.MaxFileSizeBytes)
	result, err := importSvc.Import(ctx, args.File, f)
	if err != nil {
		return err
	}
	fmt.Printf("imported %d students, skipped %d rows", result.Imported, result.Skipped)
	if len(result.SkippedRows) > 0 {
		fmt.Printf(" %v", result.SkippedRows)
	}
	fmt.Println()
	return nil
}
