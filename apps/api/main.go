package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"

	"github.com/actionunitmanager/backend/apps/api/echo"
	"github.com/actionunitmanager/backend/core"
	"github.com/actionunitmanager/backend/core/attendance"
	"github.com/actionunitmanager/backend/core/book"
	"github.com/actionunitmanager/backend/core/church"
	"github.com/actionunitmanager/backend/core/class"
	"github.com/actionunitmanager/backend/core/offering"
	"github.com/actionunitmanager/backend/core/subscription"
	"github.com/actionunitmanager/backend/core/user"
	"github.com/actionunitmanager/backend/services/email"
	"github.com/actionunitmanager/backend/services/logger"
	"github.com/actionunitmanager/backend/storage/database"
	"github.com/actionunitmanager/backend/storage/database/sqlx"
)

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	appLogger := logsvc.NewRollbarLogger(std, core.Conf)
	appLogger.Enable(!(core.Conf.Debug || core.Conf.TestMode)) // console only in DEV|TEST

	// set up DB
	sqlDB, err := database.Open(core.Conf)
	if err != nil {
		appLogger.Fatal("opening database", err)
	}
	db := sqlx.NewDb(sqlDB, core.Conf.Database.Engine)
	defer func() { _ = db.Close() }()

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(appLogger)
	}

	usrRepo := sqlxrepos.NewUserRepository(db)
	clsRepo := sqlxrepos.NewClassRepository(db)

	usrSvc := user.NewService(usrRepo, mailSvc)
	subSvc := subscription.NewService(sqlxrepos.NewSubscriptionRepository(db))
	churchSvc := church.NewService(sqlxrepos.NewChurchRepository(db), usrSvc, subSvc, mailSvc)
	clsSvc := class.NewService(clsRepo, usrSvc)
	attSvc := attendance.NewService(sqlxrepos.NewAttendanceRepository(db), clsRepo, usrSvc)
	offSvc := offering.NewService(sqlxrepos.NewOfferingRepository(db), clsRepo, usrSvc)
	bookSvc := book.NewService(sqlxrepos.NewBookRepository(db), clsRepo, usrSvc)

	validate, translator := core.NewValidator()

	app := echoapi.NewServer(&echoapi.Options{
		Address:         core.Conf.ServerAddress(),
		Logger:          appLogger,
		UserSvc:         usrSvc,
		ChurchSvc:       churchSvc,
		SubscriptionSvc: subSvc,
		ClassSvc:        clsSvc,
		AttendanceSvc:   attSvc,
		OfferingSvc:     offSvc,
		BookSvc:         bookSvc,
		Validate:        validate,
		Translator:      translator,
	})

	serverErrors := make(chan error, 1)
	go func() {
		appLogger.Info("server listening on " + core.Conf.ServerAddress())
		serverErrors <- app.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		appLogger.Fatal("server error", err)
	case sig := <-quit:
		appLogger.Info("shutdown started", sig)
	case <-app.ShutdownSignal():
		appLogger.Info("integrity shutdown requested")
	}

	ctx, cancel := context.WithTimeout(context.Background(), core.Conf.Server.ShutdownTimeout)
	defer cancel()
	if err := app.Stop(ctx); err != nil {
		appLogger.Error("graceful shutdown failed", err)
	}
	appLogger.Info("shutdown complete")
}
