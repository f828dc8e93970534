package main

import (
	"log"
	"os"

	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/storage/database"
	sqlxrepos "github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/storage/database/sqlx"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "dev"

var logger *log.Logger // todo: logger service

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig(build)

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(err)

	// start CLI
	cli := commandLine{
		db:      db,
		conf:    conf,
		usrRepo: sqlxrepos.NewUserRepository(db),
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
