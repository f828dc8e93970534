package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/apps/api/echo"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/course"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/event"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/notification"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/user"
	emailsvc "github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/services/email"
	logsvc "github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/services/logger"
	pdfsvc "github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/services/pdf"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/storage/database"
	sqlxrepos "github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/storage/database/sqlx"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "dev"

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig(build)

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	usrRepo := sqlxrepos.NewUserRepository(db)
	crsRepo := sqlxrepos.NewCourseRepository(db)
	notifRepo := sqlxrepos.NewNotificationRepository(db)

	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	crsSvc := course.NewService(db, crsRepo, usrRepo, notifRepo, mailSvc, conf)
	evtSvc := event.NewService(sqlxrepos.NewEventRepository(db), crsRepo)
	notifSvc := notification.NewService(db, notifRepo)
	reportSvc := pdfsvc.NewPDFService(conf)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	event.InitValidators(validate, translator)

	user.Init(conf)
	core.ParseEmailTemplates(conf, logger)

	// bootstrap the default admin account
	ctx := context.Background()
	if _, created, err := usrSvc.EnsureDefaultAdmin(ctx); err != nil {
		logger.Fatal(fmt.Sprintf("ensuring default admin: %v", err), err)
	} else if created {
		logger.Info("default admin account created")
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugAddr, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			UserSvc:    usrSvc,
			CourseSvc:  crsSvc,
			EventSvc:   evtSvc,
			NotifSvc:   notifSvc,
			ReportSvc:  reportSvc,
			Validate:   validate,
			Translator: translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (core.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db, conf); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
