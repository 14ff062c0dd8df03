package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/actionunitmanager/backend/core"
	"github.com/actionunitmanager/backend/core/attendance"
	"github.com/actionunitmanager/backend/core/church"
	"github.com/actionunitmanager/backend/core/class"
	"github.com/actionunitmanager/backend/core/subscription"
	"github.com/actionunitmanager/backend/core/user"
	"github.com/actionunitmanager/backend/services/email"
	"github.com/actionunitmanager/backend/storage/database"
	"github.com/actionunitmanager/backend/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// set up DB
	errAndDie(database.CreateIfNotExist(core.Conf))
	sqlDB, err := database.Open(core.Conf)
	errAndDie(err)
	db := sqlx.NewDb(sqlDB, core.Conf.Database.Engine)
	defer func() { _ = db.Close() }()
	errAndDie(db.Ping())

	// set up services
	usrRepo := sqlxrepos.NewUserRepository(db)
	clsRepo := sqlxrepos.NewClassRepository(db)
	usrSvc := user.NewService(usrRepo, emailsvc.NewConsoleService())
	subSvc := subscription.NewService(sqlxrepos.NewSubscriptionRepository(db))
	churchSvc := church.NewService(sqlxrepos.NewChurchRepository(db), usrSvc, subSvc, emailsvc.NewConsoleService())
	clsSvc := class.NewService(clsRepo, usrSvc)
	attSvc := attendance.NewService(sqlxrepos.NewAttendanceRepository(db), clsRepo, usrSvc)

	// start CLI
	cli := commandLine{
		db:        db.DB,
		usrSvc:    usrSvc,
		churchSvc: churchSvc,
		clsSvc:    clsSvc,
		attSvc:    attSvc,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
