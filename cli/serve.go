// ABOUTME: HTTP server CLI command
// ABOUTME: Serves the JSON API until the context is cancelled
package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/harperreed/leadline/logger"
	"github.com/harperreed/leadline/services"
	"github.com/harperreed/leadline/web"
)

// ServeCommand runs the web API. addr is the configured default listen address.
func ServeCommand(ctx context.Context, crm *services.CRM, log *logger.Logger, addr string, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	listen := fs.String("addr", addr, "Listen address")
	_ = fs.Parse(args)

	fmt.Printf("Serving leadline API on %s\n", *listen)
	return web.NewServer(crm, log).Run(ctx, *listen)
}
