package main

import (
	"github.com/ahmednader515/answer-guide-platform/storage/database"
)

var migrateRunFunc = database.MigrateCommand // mockable

func (cli *commandLine) migrate(args []string) error {
	command := "up"
	arguments := make([]string, 0)
	if len(args) > 0 {
		command = args[0]
		arguments = append(arguments, args[1:]...)
	}
	return migrateRunFunc(cli.db, command, arguments...)
}
