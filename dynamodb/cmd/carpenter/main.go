// carpenter provisions and inspects DynamoDB tables for local development.
//
// # Commands
//
//	carpenter create-table    Create a table with generated secondary indexes
//	carpenter delete-table    Delete a table
//	carpenter list-tables     List table names
//	carpenter scan-table      Count, and optionally print, every record of a table
//	carpenter truncate-table  Delete every record of a table
//	carpenter dynamo-up       Start DynamoDB Local in a container
//	carpenter dynamo-down     Stop the DynamoDB Local container
//
// Every command also answers to its lowerCamel name, e.g. createTable.
//
// # Quick Start
//
//	carpenter dynamo-up --gui
//	carpenter create-table --table-name orders --gsi 2 --lsi 1
//	carpenter scan-table --table-name orders --documents
//
// Without a container, use the embedded store:
//
//	carpenter create-table --db ./data --table-name orders
//
// # Configuration
//
// Flags override CARPENTER_* environment variables, which override the
// nearest carpenter.yaml:
//
//	port: 8000
//	region: local
//	naming:
//	  gsi-prefix: GSI
//	throughput:
//	  read: 5
//	  write: 5
package main

import (
	"os"
)

func main() {
	os.Exit(newApp(os.Stdout, os.Stderr).run(os.Args[1:]))
}
