package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"reflect"
	"unicode"

	"github.com/naoina/toml"
	"github.com/urfave/cli/v2"

	"github.com/sourcify-eth/chain-monitor/monitor/monitorconfig"
)

// tomlSettings ensures TOML keys use the same names as Go struct fields,
// matching the teacher's own cmd/mive/config.go exactly.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

func loadConfigFile(file string, cfg *monitorconfig.Config) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// loadConfig builds the monitor's configuration from defaults, an
// optional TOML file, and command-line flag overrides, in that order.
func loadConfig(ctx *cli.Context) (*monitorconfig.Config, error) {
	cfg := monitorconfig.Default()

	if file := ctx.String(configFileFlag.Name); file != "" {
		if err := loadConfigFile(file, cfg); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if v := ctx.String(infuraPIDFlag.Name); v != "" {
		cfg.InfuraPID = v
	}
	if v := ctx.String(swarmGatewayFlag.Name); v != "" {
		cfg.SwarmGateway = v
	}
	if v := ctx.String(ipfsCatRequestFlag.Name); v != "" {
		cfg.IpfsCatRequest = v
	}
	if v := ctx.String(repositoryFlag.Name); v != "" {
		cfg.Repository = v
	}
	if ctx.IsSet(blockTimeFlag.Name) {
		cfg.BlockTime = ctx.Duration(blockTimeFlag.Name)
	}
	if v := ctx.String(logFileFlag.Name); v != "" {
		cfg.LogFile = v
	}

	return cfg, nil
}
