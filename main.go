package main

import (
	_ "git.gdb.dev/gdb/board/src/devserver"
	_ "git.gdb.dev/gdb/board/src/migration"
	_ "git.gdb.dev/gdb/board/src/tui"
	"git.gdb.dev/gdb/board/src/website"
)

func main() {
	website.WebsiteCommand.Execute()
}
