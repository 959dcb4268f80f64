// atlas 的 external_schema 程式，輸出資料表的 DDL
//
//	data "external_schema" "gorm" {
//	  program = ["go", "run", "./tools/atlas"]
//	}
package main

import (
	"fmt"
	"io"
	"os"

	"ariga.io/atlas-provider-gorm/gormschema"
	"github.com/spf13/pflag"

	"bidhouse/adapters/db"
)

func main() {
	dialect := pflag.String("dialect", "postgres", "database dialect: postgres, mysql, sqlite or sqlserver")
	pflag.Parse()

	stmts, err := gormschema.New(*dialect).Load(db.Models...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load gorm schema: %v\n", err)
		os.Exit(1)
	}
	io.WriteString(os.Stdout, stmts)
}
