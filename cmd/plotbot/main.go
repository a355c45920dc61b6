package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"plotbot/internal/common/config"
	"plotbot/internal/preview/client"
	"plotbot/internal/preview/controller"
	"plotbot/internal/preview/surface"
	"plotbot/internal/preview/surface/flatcanvas"
	"plotbot/internal/preview/surface/scenegraph"
)

// ============================================================
// Preview Editor
// ============================================================

const usage = `plotbot: place a drawing on the plotter surface and print it.

Usage:
    plotbot [flags] [file.svg]

Commands are read from -script (or stdin with -script -), one per line:
    load <file.svg>          decompose and show a file
    click <x> <y>            select/deselect at a preview pixel
    drag <dx> <dy>           move the selection
    scale <factor>           resize the selection around its centre
    handle <name> <dx> <dy>  drag a resize handle (top-left, top, ..., left)
    placement                print the placement in device units
    handles                  print the handle positions
    submit [mode]            print (once) or schedule (schedule5|15|30|60)
    render <path>            write the preview image
    list | config            query the device service

Flags:
`

func main() {
	cfg := config.Load()

	serviceURL := flag.String("url", cfg.PlotbotURL, "device service base URL")
	backend := flag.String("backend", "scenegraph", "preview backend: scenegraph (PNG) or flatcanvas (SVG)")
	script := flag.String("script", "", "command script, - for stdin")
	out := flag.String("o", "", "write the preview image here after loading")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	opts := surface.DefaultOptions()
	opts.Magnification = cfg.Magnification
	opts.Margin = cfg.FitMargin

	var surf surface.Surface
	switch *backend {
	case "scenegraph":
		surf = scenegraph.New(opts)
	case "flatcanvas":
		surf = flatcanvas.New(opts)
	default:
		log.Fatalf("unknown backend %q", *backend)
	}

	api := client.New(*serviceURL, http.DefaultClient)
	s := &session{
		ctrl: controller.New(surf, api, api, controller.LogNotifier{}),
		api:  api,
		out:  os.Stdout,
		render: func(path string) error {
			return renderTo(surf, path)
		},
	}
	ctx := context.Background()

	if file := flag.Arg(0); file != "" {
		if err := s.exec(ctx, []string{"load", file}); err != nil {
			log.Fatalf("load %s: %v", file, err)
		}
		if err := s.exec(ctx, []string{"placement"}); err != nil {
			log.Printf("%v", err)
		}
	}
	if *out != "" {
		if err := s.render(*out); err != nil {
			log.Fatalf("render: %v", err)
		}
	}

	switch *script {
	case "":
	case "-":
		if err := s.runScript(ctx, os.Stdin); err != nil {
			log.Fatalf("%v", err)
		}
	default:
		f, err := os.Open(*script)
		if err != nil {
			log.Fatalf("open script: %v", err)
		}
		defer f.Close()
		if err := s.runScript(ctx, f); err != nil {
			log.Fatalf("%v", err)
		}
	}
}

func renderTo(s surface.Surface, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := s.Render(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Printf("[PREVIEW] wrote %s", path)
	return nil
}
