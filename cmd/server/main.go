package main

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	gconfig "github.com/goliatone/go-config/config"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-suppliers"
	"github.com/goliatone/go-suppliers/config"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

//go:embed data/fixtures/*.yml
var fixturesFS embed.FS

type App struct {
	config *gconfig.Container[*config.AppConfig]
	bunDB  *bun.DB
	repo   suppliers.RepositoryManager
	tokens *suppliers.TokenService
	srv    router.Server[*fiber.App]
	logger *glog.BaseLogger
}

func (a *App) Config() *config.AppConfig {
	return a.config.Raw()
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("suppliers"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg := gconfig.New(&config.AppConfig{}).
		WithLogger(lgr.GetLogger("config"))

	ctx := context.Background()
	if err := cfg.Load(ctx); err != nil {
		panic(err)
	}

	fmt.Println("============")
	fmt.Println(print.MaybeHighlightJSON(cfg.Raw()))
	fmt.Println("============")

	app := &App{
		config: cfg,
		logger: lgr,
	}

	if err := WithPersistence(ctx, app); err != nil {
		panic(err)
	}

	if err := WithHTTPServer(app); err != nil {
		panic(err)
	}

	if err := WithRoutes(app); err != nil {
		panic(err)
	}

	SeedDeleteClaim(ctx, app)

	go func() {
		if err := app.srv.Serve(app.Config().GetServer().GetAddr()); err != nil {
			app.GetLogger("server").Error("server stopped", "error", err)
		}
	}()

	WaitExitSignal()
}

func WithPersistence(ctx context.Context, app *App) error {
	pcfg := app.Config().GetPersistence()

	db, err := sql.Open(sqliteshim.ShimName, pcfg.GetDSN())
	if err != nil {
		log.Fatal(err)
		return err
	}

	persistence.RegisterModel((*suppliers.Account)(nil))
	persistence.RegisterModel((*suppliers.Supplier)(nil))

	client, err := persistence.New(pcfg, db, sqlitedialect.New())
	if err != nil {
		log.Fatal(err)
		return err
	}

	client.SetLogger(app.GetLogger("persistence"))

	migrationsFS, err := fs.Sub(suppliers.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}
	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)
	if err := client.ValidateDialects(ctx); err != nil {
		return err
	}

	if err := client.Migrate(ctx); err != nil {
		return err
	}

	if app.Config().GetEnv() == "development" {
		client.RegisterFixtures(fixturesFS)
		if err := client.Seed(ctx); err != nil {
			return err
		}
	}

	if report := client.Report(); report != nil && !report.IsZero() {
		fmt.Printf("report: %s\n", report.String())
	}

	app.bunDB = client.DB()
	app.repo = suppliers.NewRepositoryManager(client.DB())

	return app.repo.Validate()
}

func WithHTTPServer(app *App) error {
	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			AppName:           app.Config().GetName(),
			UnescapePath:      true,
			EnablePrintRoutes: true,
			StrictRouting:     false,
		}))
	})

	srv.Router().WithLogger(app.GetLogger("router"))

	app.srv = srv

	return nil
}

func WithRoutes(app *App) error {
	authCfg := app.Config().GetAuth()

	provider := suppliers.NewUserProvider(app.repo.Accounts()).
		WithLogger(app.GetLogger("identity"))

	tokens, err := suppliers.NewTokenService(authCfg, app.GetLogger("tokens"))
	if err != nil {
		return err
	}
	app.tokens = tokens

	gate := suppliers.NewGate(
		suppliers.WithGateLogger(app.GetLogger("gate")),
	)

	httpGate, err := suppliers.NewHTTPGate(authCfg, tokens, gate)
	if err != nil {
		return err
	}
	httpGate.WithLogger(app.GetLogger("gate:http"))

	r := app.srv.Router()

	suppliers.RegisterIdentityRoutes(r, func(c *suppliers.AuthController) *suppliers.AuthController {
		c.Provider = provider
		c.Tokens = tokens
		c.Logger = app.GetLogger("identity:http")
		return c
	})

	suppliers.RegisterSupplierRoutes(r, httpGate, func(c *suppliers.SupplierController) *suppliers.SupplierController {
		c.Store = app.repo.Suppliers()
		c.Logger = app.GetLogger("suppliers:http")
		return c
	})

	return nil
}

// SeedDeleteClaim grants the supplier delete claim to the account named in
// SUPPLIERS_ADMIN_EMAIL. The original deployment required inserting the
// claim row by hand; this gives operators a supported path.
func SeedDeleteClaim(ctx context.Context, app *App) {
	email := os.Getenv("SUPPLIERS_ADMIN_EMAIL")
	if email == "" {
		return
	}

	account, err := app.repo.Accounts().GrantClaim(ctx, email, suppliers.ClaimDeleteSupplier, "true")
	if err != nil {
		app.GetLogger("seed").Error("unable to grant delete claim", "email", email, "error", err)
		return
	}

	app.GetLogger("seed").Info("granted delete claim", "email", email, "account_id", account.ID.String())
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
