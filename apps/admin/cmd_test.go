package main

import (
	"bytes"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/actionunitmanager/backend/core/attendance"
	"github.com/actionunitmanager/backend/core/church"
	"github.com/actionunitmanager/backend/core/class"
	"github.com/actionunitmanager/backend/core/subscription"
	"github.com/actionunitmanager/backend/core/user"
	"github.com/actionunitmanager/backend/services/email"
	"github.com/actionunitmanager/backend/storage/database/inmem"
	"github.com/actionunitmanager/backend/tests"
)

var usrRepo *inmem.UserRepository

func setup(t *testing.T) *commandLine {
	usrRepo = inmem.NewUserRepository()
	clsRepo := inmem.NewClassRepository()

	usrSvc := user.NewService(usrRepo, emailsvc.NewConsoleServiceMock())
	subSvc := subscription.NewService(inmem.NewSubscriptionRepository())
	churchSvc := church.NewService(inmem.NewChurchRepository(), usrSvc, subSvc, emailsvc.NewConsoleServiceMock())
	clsSvc := class.NewService(clsRepo, usrSvc)
	attSvc := attendance.NewService(inmem.NewAttendanceRepository(clsRepo), clsRepo, usrSvc)

	return &commandLine{
		usrSvc:    usrSvc,
		churchSvc: churchSvc,
		clsSvc:    clsSvc,
		attSvc:    attSvc,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(db *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s requires a VERSION argument", command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create requires a NAME argument")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to requires a VERSION argument"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create requires a NAME argument"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to requires a VERSION argument"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "offerings", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			}
		})
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	ch := testutil.CreateChurch(t, inmem.NewChurchRepository(), "Grace SDA", "grace@test.gh")
	usr := testutil.CreateUser(t, usrRepo, ch.ID, "Awa", "awa@test.gh", "+233240000010", user.RoleTeacher, false, true)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "lol@test.gh"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@test.gh"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", usr.Email}, extra: extra{pwd: "s3cretAF"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshed, err := usrRepo.GetUserByID(usr.ID)
				if err != nil {
					t.Fatalf("GetUserByID() failed, %v", err)
				}
				if bytes.Equal(refreshed.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_createChurch(t *testing.T) {
	cli := setup(t)

	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("ChangeMe123!"), nil }

	args := []string{
		"admin", "createchurch",
		"-name", "Bethel SDA",
		"-email", "bethel@test.gh",
		"-super-name", "Kwame Asare",
		"-super-email", "kwame@test.gh",
		"-super-phone", "+233240000011",
	}
	if err := cli.run(args); err != nil {
		t.Fatalf("cli.run() unexpected error = %v", err)
	}

	usr, err := cli.usrSvc.GetByEmail("kwame@test.gh")
	if err != nil {
		t.Fatalf("GetByEmail() failed, %v", err)
	}
	if !usr.IsSuperintendent() {
		t.Errorf("role = %s, want %s", usr.Role, user.RoleSuperintendent)
	}
	if err := usr.CheckPassword("ChangeMe123!"); err != nil {
		t.Error("superintendent password not set")
	}
}

func Test_commandLine_seed(t *testing.T) {
	cli := setup(t)

	if err := cli.run([]string{"admin", "seed"}); err != nil {
		t.Fatalf("cli.run() unexpected error = %v", err)
	}

	tchr, err := cli.usrSvc.GetByPhone("+233240000002")
	if err != nil {
		t.Fatalf("GetByPhone() failed, %v", err)
	}
	cls, err := cli.clsSvc.TeacherClass(tchr.ID)
	if err != nil {
		t.Fatalf("TeacherClass() failed, %v", err)
	}
	detail, err := cli.clsSvc.Detail(cls)
	if err != nil {
		t.Fatalf("Detail() failed, %v", err)
	}
	if detail.MemberCount != 3 {
		t.Errorf("MemberCount = %d, want 3", detail.MemberCount)
	}
}
