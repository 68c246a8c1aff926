package cmd

import (
	"fmt"

	"github.com/urfave/cli"
	"github.com/warpdl/delugectl/cmd/common"
)

// secretKeys are masked when every key is listed.
var secretKeys = map[string]bool{
	"daemon.password": true,
	"rpc.secret":      true,
}

func configGet(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		common.PrintRuntimeErr(ctx, "config-get", "load", err)
		return nil
	}
	if key := ctx.Args().First(); key != "" {
		v, err := cfg.Get(key)
		if err != nil {
			common.PrintRuntimeErr(ctx, "config-get", "get", err)
			return nil
		}
		fmt.Println(v)
		return nil
	}
	for _, k := range cfg.Keys() {
		v, _ := cfg.Get(k)
		if secretKeys[k] && v != "" {
			v = "********"
		}
		fmt.Printf("%s = %s\n", k, v)
	}
	return nil
}
