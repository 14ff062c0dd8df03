package main

import (
	"github.com/actionunitmanager/backend/storage/database"
)

var gooseRunFunc = database.RunMigrationCommand // mockable

func (cli *commandLine) migrate(args []string) error {
	var extra []string
	if len(args) > 1 {
		extra = args[1:]
	}
	return gooseRunFunc(cli.db, args[0], extra...)
}
