package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"
	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"

	"github.com/novonordisk-research/vcf-parser/contexts"
	gam "github.com/novonordisk-research/vcf-parser/middleware"
	"github.com/novonordisk-research/vcf-parser/models"
	serviceInfo "github.com/novonordisk-research/vcf-parser/models/constants/service-info"
	"github.com/novonordisk-research/vcf-parser/mvc/explode"
	serviceInfoMvc "github.com/novonordisk-research/vcf-parser/mvc/service-info"
)

func main() {
	// Gather environment variables
	var cfg models.Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// broken pipes surface as EPIPE write errors instead of killing the process
	signal.Ignore(syscall.SIGPIPE)

	if len(os.Args) > 1 && os.Args[1] == "serve" {
		serve(&cfg)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, &cfg, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func serve(cfg *models.Config) {
	fmt.Printf("Using : \n"+
		"\tDebug : %t \n\n"+

		"\tFields : %s\n"+
		"\tFields Join : %s\n"+
		"\tOutput Format : %s\n"+
		"\tDuplicate Keys : %s\n"+
		"\tLine Processing Concurrency Level : %d\n"+
		"\tLine Queue Size : %d\n"+
		"\tMax Body Bytes : %d\n\n"+

		"Running on Port : %s\n",

		cfg.Debug,
		cfg.Run.Fields, cfg.Run.FieldsJoin,
		cfg.Run.OutputFormat, cfg.Run.DuplicateKeys,
		cfg.Run.Threads, cfg.Run.QueueSize,
		cfg.Api.MaxBodyBytes,
		cfg.Api.Port)

	e := newServer(cfg)

	// Run
	e.Logger.Fatal(e.Start(":" + cfg.Api.Port))
}

func newServer(cfg *models.Config) *echo.Echo {
	// Instantiate Server
	e := echo.New()

	// Configure Server
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST},
	}))

	// -- Override handlers with a custom context
	//		to be able to provide the configuration
	e.Use(func(h echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &contexts.AppContext{
				Context:   c,
				Config:    cfg,
				RequestId: uuid.New(),
			}
			return h(cc)
		}
	})

	// Begin MVC Routes
	// -- Root
	e.GET("/", func(c echo.Context) error {
		fmt.Printf("[%s] - Root hit!\n", time.Now())
		return c.JSON(http.StatusOK, serviceInfo.SERVICE_WELCOME)
	})

	// -- Service Info
	e.GET("/service-info", serviceInfoMvc.GetServiceInfo)

	// -- Explode
	e.POST("/explode", explode.Explode,
		// middleware
		gam.ValidateRunOptions)
	e.POST("/columns", explode.ListColumns,
		// middleware
		gam.ValidateRunOptions)

	return e
}
