package main

import (
	"net/http"

	"github.com/gin-contrib/multitemplate"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	cs "github.com/webtor-io/common-services"

	wapi "github.com/tubecast/web/handlers/api"
	wau "github.com/tubecast/web/handlers/auth"
	wi "github.com/tubecast/web/handlers/index"
	sess "github.com/tubecast/web/handlers/session"
	"github.com/tubecast/web/services/auth"
	"github.com/tubecast/web/services/common"
	w "github.com/tubecast/web/services/web"
	"github.com/tubecast/web/services/youtube"
	"github.com/tubecast/web/services/ytdlp"
)

func makeServeCMD() cli.Command {
	serveCMD := cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Serves web server",
		Action:  serve,
	}
	configureServe(&serveCMD)
	return serveCMD
}

func configureServe(c *cli.Command) {
	c.Flags = cs.RegisterProbeFlags(c.Flags)
	c.Flags = cs.RegisterPprofFlags(c.Flags)
	c.Flags = w.RegisterFlags(c.Flags)
	c.Flags = common.RegisterFlags(c.Flags)
	c.Flags = auth.RegisterFlags(c.Flags)
	c.Flags = youtube.RegisterFlags(c.Flags)
	c.Flags = ytdlp.RegisterFlags(c.Flags)
}

func serve(c *cli.Context) error {
	// Setting HTTP Client
	cl := http.DefaultClient

	// Setting template renderer
	re := multitemplate.NewRenderer()
	re.AddFromFiles("index", "templates/index.html")

	var servers []cs.Servable
	// Setting Probe
	probe := cs.NewProbe(c)
	if probe != nil {
		servers = append(servers, probe)
		defer probe.Close()
	}

	// Setting Pprof
	pprof := cs.NewPprof(c)
	if pprof != nil {
		servers = append(servers, pprof)
		defer pprof.Close()
	}

	// Setting Gin
	r := gin.Default()
	r.RedirectTrailingSlash = false
	r.HTMLRender = re

	// Setting Web
	web, err := w.New(c, r)
	if err != nil {
		return err
	}
	servers = append(servers, web)
	defer web.Close()

	// Setting Sessions
	err = sess.RegisterHandler(c, r)
	if err != nil {
		return err
	}

	// Setting Auth
	a := auth.New(c, cl)
	if a != nil {
		a.RegisterHandler(r)
	}

	// Setting AuthHandlers
	wau.RegisterHandler(r, a)

	// Setting YouTube Api
	yt := youtube.New(c, cl)

	// Setting Stream Resolver
	res := ytdlp.New(c)

	// Setting IndexHandler
	wi.RegisterHandler(r, a)

	// Setting ApiHandler
	wapi.RegisterHandler(r, a, yt, res)

	// Setting Serve
	serve := cs.NewServe(servers...)

	// And SERVE!
	err = serve.Serve()
	if err != nil {
		log.WithError(err).Error("got server error")
	}
	return err
}
