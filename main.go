package main

import (
	"github.com/tanpawarit/Chative-Support-Router/cli"
	_ "github.com/tanpawarit/Chative-Support-Router/pkg/logger/autoload"
)

func main() {
	cli.Execute()
}
