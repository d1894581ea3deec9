package common

import (
	"github.com/urfave/cli"
)

var (
	DomainFlag        = "domain"
	SessionSecretFlag = "secret"
)

func RegisterFlags(f []cli.Flag) []cli.Flag {
	f = append(f,
		cli.StringFlag{
			Name:   DomainFlag,
			Usage:  "domain",
			Value:  "http://localhost:5000",
			EnvVar: "DOMAIN",
		},
		cli.StringFlag{
			Name:   SessionSecretFlag,
			Usage:  "session secret",
			Value:  "secret123",
			EnvVar: "SESSION_SECRET",
		},
	)

	return f
}
