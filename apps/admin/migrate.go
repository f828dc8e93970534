package main

import (
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/storage/database"
)

var migrateFunc = database.Migrate // mockable

func (cli *commandLine) migrate() error {
	return migrateFunc(cli.db, cli.conf)
}
