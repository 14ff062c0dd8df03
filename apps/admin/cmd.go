package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/actionunitmanager/backend/core/attendance"
	"github.com/actionunitmanager/backend/core/church"
	"github.com/actionunitmanager/backend/core/class"
	"github.com/actionunitmanager/backend/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db        *sql.DB
	usrSvc    user.ServiceInterface
	churchSvc *church.Service
	clsSvc    *class.Service
	attSvc    *attendance.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose migration command (up, down, status, ...)")
	fmt.Println("  createchurch -name NAME -email EMAIL -super-name NAME -super-email EMAIL -super-phone PHONE - register a church; the superintendent password will be prompted next")
	fmt.Println("  resetpassword -email EMAIL - reset a user's password; the password will be prompted next")
	fmt.Println("  seed - load demo data (a church with classes, a teacher and members)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	createChurchCmd := flag.NewFlagSet("createchurch", flag.ExitOnError)
	createChurchName := createChurchCmd.String("name", "", "The church's name.")
	createChurchEmail := createChurchCmd.String("email", "", "The church's contact email.")
	createChurchSuperName := createChurchCmd.String("super-name", "", "The superintendent's full name.")
	createChurchSuperEmail := createChurchCmd.String("super-email", "", "The superintendent's email.")
	createChurchSuperPhone := createChurchCmd.String("super-phone", "", "The superintendent's phone number.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "createchurch":
		if err := createChurchCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *createChurchName == "" || *createChurchEmail == "" ||
			*createChurchSuperName == "" || *createChurchSuperEmail == "" || *createChurchSuperPhone == "" {
			createChurchCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			createChurchCmd.Usage()
			return errHelp
		}
		return cli.createChurch(
			*createChurchName, *createChurchEmail,
			*createChurchSuperName, *createChurchSuperEmail, *createChurchSuperPhone, pwd,
		)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)
	case "seed":
		return cli.seed()
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
