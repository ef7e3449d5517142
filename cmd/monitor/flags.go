package main

import (
	"time"

	"github.com/urfave/cli/v2"
)

// These are the command line flags the monitor binary supports, in the
// teacher's own pattern of collecting flag definitions separately from
// the command's Action (see the teacher's cmd/mive/config.go).
var (
	configFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	infuraPIDFlag = &cli.StringFlag{
		Name:  "infura.pid",
		Usage: "Infura project id used to build default chain endpoints",
	}
	swarmGatewayFlag = &cli.StringFlag{
		Name:  "swarm.gateway",
		Usage: "Base URL of the Swarm HTTP gateway",
	}
	ipfsCatRequestFlag = &cli.StringFlag{
		Name:  "ipfs.cat",
		Usage: "URL prefix for the IPFS cat HTTP endpoint, used when no in-process IPFS provider is configured",
	}
	repositoryFlag = &cli.StringFlag{
		Name:  "repository",
		Usage: "Filesystem path harvested artifacts are written under",
	}
	blockTimeFlag = &cli.DurationFlag{
		Name:  "blocktime",
		Usage: "Interval shared by the block, metadata and source tickers",
		Value: 15 * time.Second,
	}
	logFileFlag = &cli.StringFlag{
		Name:  "log.file",
		Usage: "Additionally route logs through a rotating file writer at this path",
	}
)
