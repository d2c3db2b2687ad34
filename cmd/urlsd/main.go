//
// Copyright (c) 2026 urlsd contributors (see AUTHORS file)
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
//
// * Redistributions of source code must retain the above copyright notice, this
//   list of conditions and the following disclaimer.
//
// * Redistributions in binary form must reproduce the above copyright notice,
//   this list of conditions and the following disclaimer in the documentation
//   and/or other materials provided with the distribution.
//
// * Neither the name of urlsd nor the names of its
//   contributors may be used to endorse or promote products derived from
//   this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE LIABLE
// FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR CONSEQUENTIAL
// DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER
// CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY,
// OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.
//

package main

import (
	"context"
	"io"
	"log"
	"os"

	"github.com/urfave/cli"

	"github.com/urlsfyi/urlsd/disposable"
	"github.com/urlsfyi/urlsd/mailer"
	"github.com/urlsfyi/urlsd/search"
	"github.com/urlsfyi/urlsd/store"
)

var (
	wl  = log.New(os.Stdout, "[urlsd]\t", log.LstdFlags)
	wdl = log.New(io.Discard, "[urlsd dbg]\t", log.LstdFlags)
)

func init() {
	if _, exists := os.LookupEnv("URLSD_DEBUG"); exists {
		wdl.SetOutput(os.Stderr)
	}
}

func cmdRun(c *cli.Context) error {
	conf, err := readConfig(c.GlobalString("config"))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	key, err := sessionKey()
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	mail, err := mailer.Connect(conf.Mail, wl)
	if err != nil {
		return cli.NewExitError(err.Error(), 2)
	}

	index, err := search.NewIndex(conf.Search, wl, wdl)
	if err != nil {
		return cli.NewExitError(err.Error(), 2)
	}
	defer index.Close()

	st, err := store.Open(conf.Database, mail, index, wl, wdl)
	if err != nil {
		return cli.NewExitError(err.Error(), 2)
	}
	defer st.Close()

	if conf.BlockedDomains != "" {
		if err = disposable.WatchExtraDomains(conf.BlockedDomains, wl); err != nil {
			return cli.NewExitError(err.Error(), 2)
		}
	}

	if err = store.EnsureAdministrator(st.ServerContext(context.Background()), os.Stdin, os.Stdout); err != nil {
		return cli.NewExitError(err.Error(), 2)
	}

	metrics, err := newMetricsHandler(conf.Prometheus)
	if err != nil {
		return cli.NewExitError(err.Error(), 2)
	}
	go metrics.run()

	addr := c.String("web-addr")
	if addr == "" {
		addr = conf.Web.Listen
	}
	if err = runWebAddr(addr, &conf.Web, newServer(st, key, metrics, conf.Web.WWW)); err != nil {
		return cli.NewExitError(err.Error(), 3)
	}
	return cli.NewExitError("shutting down since the listening socket has closed.", 0)
}

func main() {
	app := cli.NewApp()
	app.Name = "urlsd"
	app.Version = "0.1"
	app.Usage = "community link sharing backend"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "config",
			Value:  "/etc/urlsd/config.yaml",
			Usage:  "path to the configuration file",
			EnvVar: "URLSD_CONFIG",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "run",
			Usage: "run the backend",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:   "web-addr",
					Usage:  "address to listen on for the web API",
					EnvVar: "URLSD_WEB_ADDR",
				},
			},
			Action: cmdRun,
		},
	}

	wdl.Printf("calling app.Run()")
	app.Run(os.Args)
}
